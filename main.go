package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/shanikumar001/project-gallery-backend/cmd/server"
	"github.com/shanikumar001/project-gallery-backend/internal/config"
	"github.com/shanikumar001/project-gallery-backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	srv, err := server.New(cfg, log)
	if err != nil {
		log.Fatal("server init failed", zap.Error(err))
	}
	if err := srv.Run(); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
