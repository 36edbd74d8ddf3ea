package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	TelegramToken   string
	LogLevel        string
	LogFormat       string
	Port            string
	PrometheusPort  string
	SessionTTL      time.Duration
	JanitorInterval time.Duration
	MaxSessions     int
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		TelegramToken:  os.Getenv("TELEGRAM_TOKEN"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:      getEnvOrDefault("LOG_FORMAT", "text"),
		Port:           getEnvOrDefault("PORT", "8080"),
		PrometheusPort: getEnvOrDefault("PROMETHEUS_PORT", "9090"),
	}

	var err error
	if cfg.SessionTTL, err = getDurationOrDefault("SESSION_TTL", 12*time.Hour); err != nil {
		return nil, err
	}
	if cfg.JanitorInterval, err = getDurationOrDefault("JANITOR_INTERVAL", time.Minute); err != nil {
		return nil, err
	}

	if cfg.MaxSessions, err = getIntOrDefault("MAX_SESSIONS", 10000); err != nil {
		return nil, err
	}

	for key, value := range map[string]string{"PORT": cfg.Port, "PROMETHEUS_PORT": cfg.PrometheusPort} {
		if _, err := strconv.ParseUint(value, 10, 16); err != nil {
			return nil, fmt.Errorf("%s must be a port number, got %q", key, value)
		}
	}

	return cfg, nil
}

// TelegramEnabled reports whether the bot front end should start.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != ""
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 30m or 12h: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

func getIntOrDefault(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, raw)
	}
	return n, nil
}
