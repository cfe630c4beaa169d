package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"todoapp/docs" // swagger docs
	"todoapp/internal/auth"
	"todoapp/internal/cache"
	"todoapp/internal/config"
	"todoapp/internal/db"
	"todoapp/internal/handler"
	"todoapp/internal/logging"
	"todoapp/internal/model"
	"todoapp/internal/policy"
	"todoapp/internal/repository"
	"todoapp/internal/router"
	"todoapp/internal/service"
	"todoapp/internal/view"
)

// @title Todo API
// @version 1.0
// @description Multi-tenant task tracking API with JWT authentication and owner-scoped access.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Base logger until the environment is known
	logger := logging.Setup("")

	cfg, err := config.Load("")
	if err != nil {
		fatal(logger, "load config", err)
	}
	if err := cfg.Validate(); err != nil {
		fatal(logger, "invalid config", err)
	}
	logger = logging.Setup(cfg.AppEnv)

	gormDB, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		fatal(logger, "database init", err)
	}
	if err := migrate(gormDB, cfg.Database.Reset, logger); err != nil {
		fatal(logger, "auto-migrate", err)
	}

	cacheClient := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, "todoapp:")
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := cacheClient.Ping(pingCtx); err != nil {
		logger.Warn("redis unavailable, profiles served without cache", "addr", cfg.Redis.Addr, "error", err)
	}
	cancel()

	// Initialize auth components
	hasher, err := auth.NewHasher(auth.HasherConfig{Cost: cfg.Auth.BcryptCost})
	if err != nil {
		fatal(logger, "password hasher", err)
	}
	issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		fatal(logger, "token issuer", err)
	}
	validator, err := auth.NewValidator(cfg.Auth.JWTSecret)
	if err != nil {
		fatal(logger, "token validator", err)
	}
	resolver := auth.NewResolver(validator, logger)
	cookie := auth.CookieConfig{
		Name:   cfg.Auth.CookieName,
		Secure: cfg.Auth.CookieSecure || cfg.IsProduction(),
		TTL:    issuer.TTL(),
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	taskRepo := repository.NewTaskRepository(gormDB)

	// Initialize services
	authService := service.NewAuthService(userRepo, hasher, issuer)
	userService := service.NewUserService(userRepo, hasher, cacheClient)
	taskService := service.NewTaskService(policy.New(taskRepo))

	renderer, err := view.New()
	if err != nil {
		fatal(logger, "load templates", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer

	router.Register(e, logger, resolver, cookie, router.Handlers{
		Auth: handler.NewAuthHandler(authService),
		Task: handler.NewTaskHandler(taskService),
		User: handler.NewUserHandler(userService),
		Page: handler.NewPageHandler(authService, taskService, cookie, logger),
	})

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}
	logger.Info("swagger documentation available", "url", "http://"+docs.SwaggerInfo.Host+"/swagger/index.html")

	go func() {
		logger.Info("starting server", "port", cfg.ServerPort, "env", cfg.AppEnv)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "server start", err)
		}
	}()

	// Wait for a stop signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := cacheClient.Close(); err != nil {
		logger.Warn("close redis", "error", err)
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Info("server exited")
}

// migrate creates the schema, dropping existing tables first when reset is set.
func migrate(gormDB *gorm.DB, reset bool, logger *slog.Logger) error {
	if reset {
		logger.Warn("RESET_DB=true detected, dropping all tables")
		tables := []interface{}{
			&model.Task{},
			&model.User{},
		}
		for _, table := range tables {
			if err := gormDB.Migrator().DropTable(table); err != nil {
				logger.Warn("failed to drop table (may not exist)", "error", err)
			}
		}
	}

	return gormDB.AutoMigrate(
		&model.User{},
		&model.Task{},
	)
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
