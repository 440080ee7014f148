package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/taskflow/platform/api-gateway/internal/gateway"
	"github.com/taskflow/platform/shared/config"
	"github.com/taskflow/platform/shared/logging"
	"github.com/taskflow/platform/shared/server"
)

func main() {
	cfg, err := config.LoadGateway()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gateway.NewRouter(gateway.Config{
		TaskServiceURL: cfg.TaskServiceURL,
		UserServiceURL: cfg.UserServiceURL,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("api gateway starting",
		slog.String("port", cfg.Server.Port),
		slog.String("task_service", cfg.TaskServiceURL),
		slog.String("user_service", cfg.UserServiceURL),
	)
	if err := server.Run(ctx, cfg.Server.Addr(), router, cfg.Server.ShutdownTimeout, logger); err != nil {
		logger.Error("api gateway stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
