package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taitanx/media-delivery-backend/internal/config"
	"github.com/taitanx/media-delivery-backend/internal/database"
	"github.com/taitanx/media-delivery-backend/internal/database/repository"
	"github.com/taitanx/media-delivery-backend/internal/handlers"
	"github.com/taitanx/media-delivery-backend/internal/middleware"
	"github.com/taitanx/media-delivery-backend/internal/router"
	"github.com/taitanx/media-delivery-backend/internal/services/acquire"
	"github.com/taitanx/media-delivery-backend/internal/services/delivery"
	"github.com/taitanx/media-delivery-backend/internal/services/events"
	"github.com/taitanx/media-delivery-backend/internal/services/export"
	"github.com/taitanx/media-delivery-backend/internal/services/mediacache"
	"github.com/taitanx/media-delivery-backend/internal/services/quota"
	"github.com/taitanx/media-delivery-backend/internal/services/relay"
	"github.com/taitanx/media-delivery-backend/internal/utils"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	// Import Swagger docs
	_ "github.com/taitanx/media-delivery-backend/docs"
)

// @title TaitanX Media Delivery API
// @version 1.0
// @description Rate-limited audio and video delivery API with caching and Telegram relay storage
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@taitanx.dev

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	// Configure logging
	configureLogging(cfg.LogLevel)

	// Initialize Sentry
	utils.InitSentry()

	// Initialize database connection
	db, err := database.Open(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close(db)

	// Repositories
	keyRepo := repository.NewAPIKeyRepository(db)
	cacheRepo := repository.NewMediaCacheRepository(db)
	recordRepo := repository.NewRequestRecordRepository(db)

	// Core services
	quotaService := quota.NewService(keyRepo, cfg.DailyRequestLimit)
	cacheService := mediacache.NewService(cacheRepo, cfg.CacheTTL)
	orchestrator := acquire.NewDefault(cfg.MaxUploadBytes, cfg.MaxConcurrentDownloads, cfg.DownloadTimeout)

	relayAdapter, err := relay.NewAdapter(cfg.TelegramBotToken, cfg.TelegramChannelID, cfg.MaxUploadBytes)
	if err != nil {
		logrus.Fatalf("Failed to initialize Telegram relay: %v", err)
	}

	// Analytics events over RabbitMQ; the API keeps serving without them
	publisher, err := events.NewPublisher(cfg)
	if err != nil {
		logrus.Warnf("Failed to initialize RabbitMQ publisher: %v", err)
		publisher = nil
	} else {
		logrus.Info("RabbitMQ publisher initialized")
		defer publisher.Close()
	}

	deliveryService := delivery.NewService(quotaService, cacheService, orchestrator, relayAdapter, recordRepo, publisher)
	exportService := export.NewService(quotaService, recordRepo, cfg.ExportsDir)

	// Expire stale cache rows every hour
	sweeper := mediacache.NewSweeper(cacheService, time.Hour)
	sweeper.Start()
	defer sweeper.Stop()

	// Initialize router
	r := router.SetupRouter(router.Handlers{
		Media:    handlers.NewMediaHandler(deliveryService),
		Cache:    handlers.NewCacheHandler(cacheService),
		Admin:    handlers.NewAdminHandler(quotaService, recordRepo, exportService),
		AdminKey: middleware.NewAdminKeyMiddleware(quotaService),
	})

	// Configure HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		logrus.Infof("Server starting on port %s", cfg.Port)
		logrus.Infof("API Health Check: http://localhost:%s/health", cfg.Port)
		logrus.Infof("Swagger UI: http://localhost:%s/swagger/index.html", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown the server
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited properly")
}

func configureLogging(logLevel string) {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}
