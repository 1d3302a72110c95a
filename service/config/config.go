package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

type Config struct {
	Port           int
	APIKey         string
	VerboseLogging bool
	RateLimit      int
	PublicURL      string

	StoreBackend string
	StoragePath  string
	RedisURL     string
	RedisPrefix  string

	VAPIDSubscriber string
	PushTTL         int

	TelegramBotToken string
	TelegramChatID   int64
	OpenAppURL       string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnvInt("PORT", 8080),
		APIKey:         os.Getenv("API_KEY"),
		VerboseLogging: getEnvBool("VERBOSE_LOGGING", false),
		RateLimit:      getEnvInt("RATE_LIMIT", 100),

		StoreBackend: strings.ToLower(getEnvString("STORE_BACKEND", StoreSQLite)),
		StoragePath:  getEnvString("STORAGE_PATH", "./data/shiny.db"),
		RedisURL:     getEnvString("REDIS_URL", "redis://127.0.0.1:6379/0"),
		RedisPrefix:  getEnvString("REDIS_PREFIX", "shiny:"),

		VAPIDSubscriber: getEnvString("VAPID_SUBSCRIBER", "admin@localhost"),
		PushTTL:         getEnvInt("PUSH_TTL", 86400),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   getEnvInt64("TELEGRAM_CHAT_ID", 0),
		OpenAppURL:       os.Getenv("OPEN_APP_URL"),
	}

	cfg.PublicURL = strings.TrimSuffix(getEnvString("PUBLIC_URL", fmt.Sprintf("http://localhost:%d", cfg.Port)), "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("API_KEY environment variable is required")
	}
	switch c.StoreBackend {
	case StoreSQLite, StoreRedis:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (expected %s or %s)", c.StoreBackend, StoreSQLite, StoreRedis)
	}
	if c.PushTTL < 0 {
		return fmt.Errorf("PUSH_TTL must not be negative")
	}
	return nil
}

func (c *Config) IsTelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}
