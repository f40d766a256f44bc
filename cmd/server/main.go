package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"location-service/internal/client"
	"location-service/internal/config"
	"location-service/internal/database"
	"location-service/internal/dispatch"
	"location-service/internal/job"
	"location-service/internal/metrics"
	"location-service/internal/repository"
	"location-service/internal/router"
	"location-service/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Server.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Location Service",
		zap.Int("port", cfg.Server.Port),
		zap.String("env", cfg.Server.Env),
		zap.String("base_path", cfg.Server.BasePath),
		zap.String("auth_service_url", cfg.Auth.ServiceURL),
	)

	// Initialize database (startup survives a down database, retried in background)
	db, err := database.InitPostgres(cfg.Database.URL, cfg.Server.Env)
	if err != nil {
		logger.Warn("Failed to connect to database on startup, will retry in background",
			zap.Error(err))
		database.InitPostgresAsync(cfg.Database.URL, cfg.Server.Env, 5*time.Second)
	} else {
		logger.Info("Database connected successfully")
	}

	// Initialize Redis (optional, nil client means single-instance mode)
	redisClient, err := database.InitRedis(cfg.Redis.URL)
	if err != nil {
		logger.Warn("Redis unavailable, running without cross-instance fan-out", zap.Error(err))
		redisClient = nil
	} else {
		logger.Info("Redis connected successfully")
	}

	// Initialize metrics
	m := metrics.New()

	// WebSocket hub doubles as the local delivery sink
	hub := websocket.NewHub(logger, m)

	// Assemble dispatch sinks: local websocket sessions first, then Redis for
	// other instances, then notification fallback for offline recipients.
	sinks := []dispatch.Sink{hub}
	if redisClient != nil {
		sinks = append(sinks, dispatch.NewRedisSink(redisClient))
	}
	if cfg.Services.NotiServiceURL != "" {
		notiClient := client.NewNotificationClient(cfg.Services.NotiServiceURL, cfg.Services.NotiAPIKey, 10*time.Second, logger)
		sinks = append(sinks, client.NewNotificationSink(notiClient, hub.IsConnected))
		logger.Info("Notification sink enabled", zap.String("noti_service_url", cfg.Services.NotiServiceURL))
	} else {
		logger.Warn("Notification service not configured, offline recipients will not be notified")
	}

	dispatcher := dispatch.NewAsyncDispatcher(cfg.Location.DispatchQueueSize, sinks, logger, m)
	defer dispatcher.Close()

	// Relay events published by other instances to local sessions
	bridgeCtx, bridgeCancel := context.WithCancel(context.Background())
	defer bridgeCancel()
	if redisClient != nil {
		go hub.RunRedisBridge(bridgeCtx, redisClient)
	}

	// Setup router with all dependencies
	r := router.Setup(cfg, db, redisClient, hub, dispatcher, m, logger)

	// Schedule retention sweeps
	locationRepo := repository.NewLocationRepository(db)
	shareRepo := repository.NewShareRepository(db)
	cleanupJob := job.NewCleanupJob(locationRepo, shareRepo, cfg.Location, logger)

	scheduler := cron.New()
	if _, err := scheduler.AddJob(cfg.Location.CleanupSchedule, cleanupJob); err != nil {
		logger.Error("Failed to schedule cleanup job",
			zap.String("schedule", cfg.Location.CleanupSchedule),
			zap.Error(err))
	} else {
		scheduler.Start()
		logger.Info("Cleanup job scheduled", zap.String("schedule", cfg.Location.CleanupSchedule))
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Location Service started successfully",
			zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	scheduler.Stop()
	bridgeCancel()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}

// initLogger initializes the zap logger with the specified level
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      zapLevel == zapcore.DebugLevel,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}
