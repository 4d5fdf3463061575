package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURI   string
	TelegramToken string

	OneSignalAppID  string
	OneSignalAPIKey string
	OneSignalURL    string
	PushRelayURL    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	HTTPAddr string
	Timezone string
	LogLevel string
	LogDir   string

	MissedGraceMinutes int
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env file is optional in production
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	grace, err := getEnvInt("MISSED_GRACE_MINUTES", 60)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURI:        os.Getenv("DATABASE_URI"),
		TelegramToken:      os.Getenv("TELEGRAM_TOKEN"),
		OneSignalAppID:     os.Getenv("ONESIGNAL_APP_ID"),
		OneSignalAPIKey:    os.Getenv("ONESIGNAL_API_KEY"),
		OneSignalURL:       getEnvOrDefault("ONESIGNAL_URL", "https://api.onesignal.com/notifications"),
		PushRelayURL:       os.Getenv("PUSH_RELAY_URL"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		RedisDB:            redisDB,
		HTTPAddr:           getEnvOrDefault("HTTP_ADDR", ":8080"),
		Timezone:           getEnvOrDefault("TIMEZONE", "Local"),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		LogDir:             getEnvOrDefault("LOG_DIR", "logs"),
		MissedGraceMinutes: grace,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("REDIS_DB must not be negative")
	}
	if c.MissedGraceMinutes < 0 {
		return fmt.Errorf("MISSED_GRACE_MINUTES must not be negative")
	}
	return nil
}

// Location returns the wall-clock zone doses are interpreted in.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Config) OneSignalEnabled() bool {
	return c.OneSignalAppID != "" && c.OneSignalAPIKey != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}
