package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/shanikumar001/project-gallery-backend/internal/handlers"
	"github.com/shanikumar001/project-gallery-backend/internal/metrics"
	"github.com/shanikumar001/project-gallery-backend/internal/middleware"
	"github.com/shanikumar001/project-gallery-backend/pkg/auth"
)

type Handlers struct {
	Auth      *handlers.AuthHandler
	User      *handlers.UserHandler
	Follow    *handlers.FollowHandler
	Message   *handlers.MessageHandler
	Project   *handlers.ProjectHandler
	WebSocket *handlers.WebSocketHandler
	Health    *handlers.HealthHandler
}

type RouterDeps struct {
	JWTManager *auth.JWTManager
	Blacklist  *auth.Blacklist
	Metrics    *metrics.Metrics
	Registry   *prometheus.Registry
	Origins    []string
	Logger     *zap.Logger
}

func APIEndpoints(r *gin.Engine, h Handlers, deps RouterDeps) {
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger, deps.Metrics))
	r.Use(middleware.CORS(deps.Origins))

	r.GET("/health", h.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))

	requireAuth := middleware.AuthMiddleware(deps.JWTManager, deps.Blacklist, deps.Logger, false)

	api := r.Group("/api")

	// Auth endpoints
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/signup", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/logout", requireAuth, h.Auth.Logout)
	}

	// public profile
	api.GET("/users/:id", h.User.GetUser)

	users := api.Group("/users", requireAuth)
	{
		users.GET("/me", h.User.GetMe)
		users.PUT("/me", h.User.UpdateMe)
		users.GET("/me/follow-requests", h.Follow.Requests)
		users.POST("/follow-requests/:id/accept", h.Follow.Accept)
		users.POST("/follow-requests/:id/decline", h.Follow.Decline)

		users.POST("/:id/follow", h.Follow.Follow)
		users.DELETE("/:id/follow", h.Follow.Unfollow)
		users.GET("/:id/follow-status", h.Follow.Status)
		users.GET("/:id/followers", h.Follow.Followers)
		users.GET("/:id/following", h.Follow.Following)
	}

	messages := api.Group("/messages", requireAuth)
	{
		messages.POST("", h.Message.Send)
		messages.GET("", h.Message.List)
		messages.POST("/read", h.Message.MarkRead)
		messages.GET("/conversations", h.Message.Conversations)
		messages.GET("/unread-count", h.Message.UnreadCount)
	}

	api.GET("/projects", h.Project.List)
	api.GET("/projects/:id", h.Project.Get)

	projects := api.Group("/projects", requireAuth)
	{
		projects.POST("", h.Project.Create)
		projects.DELETE("/:id", h.Project.Delete)
		projects.POST("/:id/like", h.Project.Like)
		projects.DELETE("/:id/like", h.Project.Unlike)
		projects.POST("/:id/save", h.Project.Save)
		projects.DELETE("/:id/save", h.Project.Unsave)
		projects.POST("/:id/comments", h.Project.AddComment)
	}

	api.GET("/ws", middleware.AuthMiddleware(deps.JWTManager, deps.Blacklist, deps.Logger, true), h.WebSocket.HandleWebSocket)
}
