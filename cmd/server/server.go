package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/shanikumar001/project-gallery-backend/internal/cache"
	"github.com/shanikumar001/project-gallery-backend/internal/config"
	"github.com/shanikumar001/project-gallery-backend/internal/database"
	"github.com/shanikumar001/project-gallery-backend/internal/handlers"
	"github.com/shanikumar001/project-gallery-backend/internal/metrics"
	"github.com/shanikumar001/project-gallery-backend/internal/services"
	"github.com/shanikumar001/project-gallery-backend/internal/websocket"
	"github.com/shanikumar001/project-gallery-backend/pkg/auth"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	Router     *gin.Engine
	DB         *database.Database
	Redis      *redis.Client
	JWTManager *auth.JWTManager
	Hub        *websocket.Hub
	Registry   *prometheus.Registry

	cfg    *config.Config
	logger *zap.Logger
}

// New connects to the database and Redis, builds the services and mounts
// every route. The hub goroutine is started here and stopped by Close.
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		_ = db.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	blacklist := auth.NewBlacklist(rdb)

	hub := websocket.NewHub(logger, m.WSConnections)
	go hub.Run()

	opts := services.Options{
		Locker:   services.NewRedisLocker(rdb, cfg.PairLockTTL),
		Notifier: hub,
		Cache:    cache.NewUnreadCounts(rdb, cfg.UnreadCacheTTL),
		Clock:    clockwork.NewRealClock(),
		Logger:   logger,
	}
	users := services.NewUserService(db, 0, opts)
	follows := services.NewFollowService(db, opts)
	messages := services.NewMessageService(db, opts)
	projects := services.NewProjectService(db, opts)

	if !cfg.LogDev {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	APIEndpoints(router, Handlers{
		Auth:      handlers.NewAuthHandler(users, jwtMgr, blacklist, logger),
		User:      handlers.NewUserHandler(users, projects, logger),
		Follow:    handlers.NewFollowHandler(follows, m, logger),
		Message:   handlers.NewMessageHandler(messages, m, logger),
		Project:   handlers.NewProjectHandler(projects, m, logger),
		WebSocket: handlers.NewWebSocketHandler(hub, cfg.CORSOrigins, logger),
		Health: handlers.NewHealthHandler(map[string]handlers.Pinger{
			"database": db,
			"redis": handlers.PingFunc(func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			}),
		}),
	}, RouterDeps{
		JWTManager: jwtMgr,
		Blacklist:  blacklist,
		Metrics:    m,
		Registry:   reg,
		Origins:    cfg.CORSOrigins,
		Logger:     logger,
	})

	return &Server{
		Router:     router,
		DB:         db,
		Redis:      rdb,
		JWTManager: jwtMgr,
		Hub:        hub,
		Registry:   reg,
		cfg:        cfg,
		logger:     logger,
	}, nil
}

// Run serves until SIGINT/SIGTERM, then drains in-flight requests.
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-errCh:
		if ok {
			s.Close()
			return fmt.Errorf("server run: %w", err)
		}
	case sig := <-quit:
		s.logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// hijacked websocket connections are not tracked by Shutdown
	s.Hub.Stop()
	err := srv.Shutdown(ctx)
	s.Close()
	return err
}

// Close stops the hub and releases the database and Redis connections.
func (s *Server) Close() {
	s.Hub.Stop()
	if err := s.DB.Close(); err != nil {
		s.logger.Warn("close database", zap.Error(err))
	}
	if err := s.Redis.Close(); err != nil {
		s.logger.Warn("close redis", zap.Error(err))
	}
}
