package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/taskflow/platform/shared/config"
	"github.com/taskflow/platform/shared/database"
	"github.com/taskflow/platform/shared/events"
	"github.com/taskflow/platform/shared/logging"
	"github.com/taskflow/platform/shared/middleware"
	sharedredis "github.com/taskflow/platform/shared/redis"
	"github.com/taskflow/platform/shared/server"
	"github.com/taskflow/platform/task-service/internal/client"
	taskcmd "github.com/taskflow/platform/task-service/internal/command"
	"github.com/taskflow/platform/task-service/internal/handler"
	taskqry "github.com/taskflow/platform/task-service/internal/query"
	"github.com/taskflow/platform/task-service/internal/repository"
)

type taskStore interface {
	taskcmd.TaskStore
	taskqry.TaskReader
}

func main() {
	cfg, err := config.LoadTaskService()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("task service stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.TaskServiceConfig, logger *slog.Logger) error {
	store, closeStore, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// One Redis client per process: the cache and the subscriber share it.
	cache, redisClient := sharedredis.NewCache(ctx, cfg.Redis.URL, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	userClient := client.NewUserClient(cfg.UserService.BaseURL, cfg.UserService.Timeout)

	// --- CQRS wiring ---
	commandSvc := taskcmd.NewTaskCommandService(store, userClient, cache, logger)
	querySvc := taskqry.NewTaskQueryService(store)
	taskHandler := handler.NewTaskHandler(commandSvc, querySvc, logger)

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.LoggingMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "task-service"})
	})

	tasks := router.Group("/tasks")
	{
		tasks.POST("", taskHandler.CreateTask)
		tasks.GET("", taskHandler.ListTasks)
		tasks.GET("/:id", taskHandler.GetTask)
		tasks.PUT("/:id", taskHandler.UpdateTaskStatus)
		tasks.DELETE("/:id", taskHandler.DeleteTask)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("task service starting", slog.String("port", cfg.Server.Port))
		return server.Run(gctx, cfg.Server.Addr(), router, cfg.Server.ShutdownTimeout, logger)
	})
	if redisClient != nil {
		subscriber := events.NewSubscriber(redisClient, events.SubscriberConfig{
			Channel: events.UserCreated,
			Handler: commandSvc.HandleUserEvent,
			Logger:  logger,
		})
		// Subscriber failures are logged and never stop the service.
		g.Go(func() error {
			if err := subscriber.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("subscriber stopped", slog.Any("error", err))
			}
			return nil
		})
	}
	return g.Wait()
}

func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (taskStore, func(), error) {
	if cfg.Driver == config.DriverMemory {
		logger.Warn("using in-memory task store, data is lost on restart")
		return repository.NewMemoryTaskRepository(), func() {}, nil
	}

	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	repo := repository.NewTaskRepository(db, cfg.QueryTimeout)
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return repo, func() { db.Close() }, nil
}
