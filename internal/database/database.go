package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/taitanx/media-delivery-backend/internal/config"
	"github.com/taitanx/media-delivery-backend/internal/models"
)

// Open connects to PostgreSQL, runs migrations and returns the handle. The
// caller owns the handle's lifecycle and must Close it on shutdown; there is
// no package-level connection.
func Open(cfg *config.Config) (*gorm.DB, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	gormLogger := logger.New(
		logrus.New(),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Error,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(
		&models.APIKey{},
		&models.RequestRecord{},
		&models.BotUser{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// The two cache tables share one model; migrate each explicitly.
	for _, table := range []string{models.AudioCacheTable, models.VideoCacheTable} {
		if err := db.Table(table).AutoMigrate(&models.CacheEntry{}); err != nil {
			return nil, fmt.Errorf("failed to migrate %s table: %w", table, err)
		}
	}

	logrus.Info("Database connection established and migrations completed")
	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
