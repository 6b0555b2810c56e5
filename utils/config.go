package utils

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config is read once at startup from the environment.
type Config struct {
	Env           string
	Addr          string
	StoreDriver   string
	DatabaseURL   string
	SQLitePath    string
	RedisURL      string
	SessionSecret string
	SessionTTL    time.Duration
	ViewCacheTTL  time.Duration
	SendGridKey   string
	MailFrom      string
	LogLevel      string
	LogFormat     string
}

const devSessionSecret = "dev-only-session-secret"

// LoadConfig loads .env outside production and reads the process environment.
func LoadConfig() (Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			slog.Info("no .env file found, continuing")
		}
	}
	return ConfigFromEnv(os.Getenv)
}

// ConfigFromEnv builds a Config from getenv, applying defaults.
func ConfigFromEnv(getenv func(string) string) (Config, error) {
	get := func(key, fallback string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return fallback
	}

	cfg := Config{
		Env:           get("APP_ENV", "development"),
		Addr:          get("ADDR", ":8080"),
		StoreDriver:   get("STORE_DRIVER", "postgres"),
		DatabaseURL:   getenv("DATABASE_URL"),
		SQLitePath:    get("SQLITE_PATH", "taskmanager.db"),
		RedisURL:      get("REDIS_URL", "redis://localhost:6379/0"),
		SessionSecret: getenv("SESSION_SECRET"),
		SendGridKey:   getenv("SENDGRID_API_KEY"),
		MailFrom:      get("MAIL_FROM", "donotreply@taskmanager.local"),
		LogLevel:      get("LOG_LEVEL", "info"),
		LogFormat:     get("LOG_FORMAT", "json"),
	}

	var err error
	if cfg.SessionTTL, err = time.ParseDuration(get("SESSION_TTL", "24h")); err != nil {
		return Config{}, fmt.Errorf("parsing SESSION_TTL: %w", err)
	}
	if cfg.ViewCacheTTL, err = time.ParseDuration(get("VIEW_CACHE_TTL", "5m")); err != nil {
		return Config{}, fmt.Errorf("parsing VIEW_CACHE_TTL: %w", err)
	}

	switch cfg.StoreDriver {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is required for the postgres driver")
		}
	case "sqlite":
	default:
		return Config{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	if cfg.SessionSecret == "" {
		if cfg.Env == "production" {
			return Config{}, errors.New("SESSION_SECRET is required in production")
		}
		cfg.SessionSecret = devSessionSecret
	}

	return cfg, nil
}

func (c Config) Production() bool {
	return c.Env == "production"
}
