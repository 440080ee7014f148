package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/taskflow/platform/shared/auth"
	"github.com/taskflow/platform/shared/config"
	"github.com/taskflow/platform/shared/database"
	"github.com/taskflow/platform/shared/events"
	"github.com/taskflow/platform/shared/logging"
	"github.com/taskflow/platform/shared/middleware"
	"github.com/taskflow/platform/shared/server"
	usercmd "github.com/taskflow/platform/user-service/internal/command"
	"github.com/taskflow/platform/user-service/internal/handler"
	userqry "github.com/taskflow/platform/user-service/internal/query"
	"github.com/taskflow/platform/user-service/internal/repository"
)

type userStore interface {
	usercmd.UserStore
	userqry.UserReader
}

func main() {
	cfg, err := config.LoadUserService()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("user service stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.UserServiceConfig, logger *slog.Logger) error {
	if cfg.Auth.UsesDevelopmentSecret() {
		logger.Warn("JWT_SECRET not set, signing tokens with the development secret")
	}
	hasher, err := auth.NewPasswordHasher(cfg.Auth.PasswordHasher)
	if err != nil {
		return err
	}
	if cfg.Auth.PasswordHasher == config.HasherSHA256 {
		logger.Warn("passwords are stored as unsalted sha256, set PASSWORD_HASHER=bcrypt to harden")
	}
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret)

	store, closeStore, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	publisher, redisClient := events.NewPublisher(ctx, cfg.Redis.URL, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// --- CQRS wiring ---
	commandSvc := usercmd.NewUserCommandService(store, hasher, publisher, logger)
	querySvc := userqry.NewUserQueryService(store, hasher)
	userHandler := handler.NewUserHandler(commandSvc, querySvc, tokens, logger)

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.LoggingMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "user-service"})
	})

	users := router.Group("/users")
	{
		users.POST("/register", userHandler.Register)
		users.POST("/login", userHandler.Login)
		users.GET("/:id", userHandler.GetUser)
		users.PUT("/:id", userHandler.UpdateProfile)
	}

	logger.Info("user service starting", slog.String("port", cfg.Server.Port))
	return server.Run(ctx, cfg.Server.Addr(), router, cfg.Server.ShutdownTimeout, logger)
}

func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (userStore, func(), error) {
	if cfg.Driver == config.DriverMemory {
		logger.Warn("using in-memory user store, data is lost on restart")
		return repository.NewMemoryUserRepository(), func() {}, nil
	}

	db, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	repo := repository.NewUserRepository(db, cfg.QueryTimeout)
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return repo, func() { db.Close() }, nil
}
