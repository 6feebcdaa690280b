package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every environment-driven option the services consume. Load it
// once in main and pass it down; nothing reads the environment after startup.
type Config struct {
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	DailyRequestLimit int
	CacheTTL          time.Duration
	AdminUserIDs      map[string]struct{}

	TelegramBotToken    string
	TelegramChannelID   string
	TelegramChannelLink string

	MaxUploadBytes         int64
	MaxConcurrentDownloads int
	DownloadTimeout        time.Duration

	RabbitMQHost string
	RabbitMQPort string
	RabbitMQUser string
	RabbitMQPass string

	ExportsDir string
	LogLevel   string
}

// Load reads the configuration from the environment, applying defaults for
// everything except the database and Telegram credentials.
func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "3000"),

		DBHost:     getEnv("DB_HOST", ""),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", ""),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", ""),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		DailyRequestLimit: getEnvAsInt("DAILY_REQUEST_LIMIT", 200),
		CacheTTL:          time.Duration(getEnvAsInt("CACHE_TTL_HOURS", 24)) * time.Hour,
		AdminUserIDs:      parseIDList(getEnv("ADMIN_USER_IDS", "")),

		TelegramBotToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChannelID:   getEnv("TELEGRAM_CHANNEL_ID", ""),
		TelegramChannelLink: getEnv("TELEGRAM_CHANNEL_LINK", ""),

		MaxUploadBytes:         int64(getEnvAsInt("MAX_UPLOAD_MB", 50)) * 1024 * 1024,
		MaxConcurrentDownloads: getEnvAsInt("MAX_CONCURRENT_DOWNLOADS", 4),
		DownloadTimeout:        time.Duration(getEnvAsInt("DOWNLOAD_TIMEOUT_SECONDS", 300)) * time.Second,

		RabbitMQHost: getEnv("RABBITMQ_HOST", "localhost"),
		RabbitMQPort: getEnv("RABBITMQ_PORT", "5672"),
		RabbitMQUser: getEnv("RABBITMQ_USER", "guest"),
		RabbitMQPass: getEnv("RABBITMQ_PASS", "guest"),

		ExportsDir: getEnv("EXPORTS_DIR", "exports"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
	}
}

// DSN builds the postgres connection string.
func (c *Config) DSN() (string, error) {
	if c.DBHost == "" || c.DBUser == "" || c.DBPassword == "" || c.DBName == "" {
		return "", fmt.Errorf("missing required database environment variables. Please check your .env file")
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode), nil
}

// IsAdminUser reports whether a user id is in the configured admin list.
func (c *Config) IsAdminUser(userID string) bool {
	_, ok := c.AdminUserIDs[userID]
	return ok
}

func parseIDList(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out[p] = struct{}{}
	}
	return out
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := strings.TrimSpace(getEnv(key, ""))
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
