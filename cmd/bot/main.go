package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/taitanx/media-delivery-backend/internal/bot"
	"github.com/taitanx/media-delivery-backend/internal/config"
	"github.com/taitanx/media-delivery-backend/internal/database"
	"github.com/taitanx/media-delivery-backend/internal/database/repository"
	"github.com/taitanx/media-delivery-backend/internal/services/quota"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	db, err := database.Open(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close(db)

	keyRepo := repository.NewAPIKeyRepository(db)
	recordRepo := repository.NewRequestRecordRepository(db)
	userRepo := repository.NewBotUserRepository(db)
	quotaService := quota.NewService(keyRepo, cfg.DailyRequestLimit)

	b, err := bot.New(cfg, quotaService, recordRepo, userRepo)
	if err != nil {
		logrus.Fatalf("Failed to create bot: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	b.Run(ctx)
}
