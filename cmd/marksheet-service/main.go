package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/SAP-F-2025/marksheet-service/internal/cache"
	"github.com/SAP-F-2025/marksheet-service/internal/config"
	"github.com/SAP-F-2025/marksheet-service/internal/handlers"
	"github.com/SAP-F-2025/marksheet-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/marksheet-service/internal/services"
	"github.com/SAP-F-2025/marksheet-service/internal/utils"
	"github.com/SAP-F-2025/marksheet-service/internal/validator"
	"github.com/SAP-F-2025/marksheet-service/pkg"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		utils.NewLogger("development").Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Environment)
	logger.Info("Starting marksheet service", "environment", cfg.Environment, "college", cfg.CollegeName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Storage
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Database unavailable", "error", err)
		os.Exit(1)
	}
	if err := pkg.Migrate(db); err != nil {
		logger.Error("Migration failed", "error", err)
		os.Exit(1)
	}
	repo := postgres.NewRepository(db)
	defer repo.Close()

	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	err = repo.Ping(pingCtx)
	cancelPing()
	if err != nil {
		logger.Error("Database ping failed", "error", err)
		os.Exit(1)
	}

	// 2. Analytics cache, optional
	cacheService := cache.NewNoopCache()
	if client, err := pkg.NewRedisClient(ctx, cfg); err != nil {
		logger.Warn("Redis unavailable, analytics will not be cached", "error", err)
	} else {
		defer client.Close()
		cacheService = cache.NewRedisCache(client, logger.Slog())
	}

	// 3. Notification channel
	publisher, err := cfg.Events.CreateEventPublisher(logger.Slog())
	if err != nil {
		logger.Error("Failed to create event publisher", "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	bounds := cfg.MarksBounds()
	serviceManager := services.NewServiceManager(repo, cacheService, publisher, services.ServiceOptions{
		SubmitFallback:           cfg.SubmitFallbackTimeout,
		SessionIdleTimeout:       cfg.SessionIdleTimeout,
		DashboardRefreshInterval: cfg.DashboardRefreshInterval,
		AnalyticsCacheTTL:        cfg.AnalyticsCacheTTL,
		MaxUploadSize:            cfg.MaxUploadSize,
		Bounds:                   &bounds,
	}, logger.Slog(), validator.NewWithBounds(bounds))

	// Background loops stop with ctx and are awaited before storage closes.
	var background sync.WaitGroup
	background.Add(2)
	go func() {
		defer background.Done()
		serviceManager.Dashboard().Run(ctx)
	}()
	go func() {
		defer background.Done()
		serviceManager.Session().Run(ctx)
	}()
	defer background.Wait()

	// 4. HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), utils.LoggerMiddleware(logger))
	router.MaxMultipartMemory = cfg.MaxUploadSize

	handlers.NewHandlerManager(serviceManager, cfg.MaxUploadSize, logger).SetupRoutes(router)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down marksheet service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}

	logger.Info("Marksheet service stopped")
}
