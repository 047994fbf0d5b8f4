// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Config holds all server configuration
type Config struct {
	Port     string
	LogLevel slog.Level
	// LogFile switches logging from stdout to a rotated file
	LogFile string

	StorageType string
	RedisURL    string
	DatabaseURL string

	// Google OAuth client. An empty ClientID disables the login routes.
	GoogleClientID     string
	GoogleClientSecret string
	OAuthRedirectURL   string

	CookieSecure bool

	AuditWorkers     int
	AuditMaxAttempts int

	WSPingInterval time.Duration
	WSPongWait     time.Duration
}

// LoginEnabled reports whether an identity provider is configured
func (c *Config) LoginEnabled() bool {
	return c.GoogleClientID != ""
}

// Load reads environment variables and returns a validated Config
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Port = os.Getenv("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		cfg.LogLevel = slog.LevelInfo
	}
	cfg.LogFile = os.Getenv("LOG_FILE")

	cfg.StorageType = strings.ToLower(os.Getenv("STORAGE_TYPE"))
	if cfg.StorageType == "" {
		cfg.StorageType = StorageMemory
	}
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	switch cfg.StorageType {
	case StorageMemory:
	case StorageRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required when STORAGE_TYPE=redis")
		}
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORAGE_TYPE=postgres")
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE_TYPE %q", cfg.StorageType)
	}

	cfg.GoogleClientID = os.Getenv("GOOGLE_CLIENT_ID")
	cfg.GoogleClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	cfg.OAuthRedirectURL = os.Getenv("OAUTH_REDIRECT_URL")
	if cfg.GoogleClientID != "" {
		if cfg.GoogleClientSecret == "" {
			return nil, fmt.Errorf("GOOGLE_CLIENT_SECRET is required when GOOGLE_CLIENT_ID is set")
		}
		if cfg.OAuthRedirectURL == "" {
			return nil, fmt.Errorf("OAUTH_REDIRECT_URL is required when GOOGLE_CLIENT_ID is set")
		}
	}

	// Only an explicit "true" marks cookies Secure, so plain-http local runs work
	cfg.CookieSecure = os.Getenv("COOKIE_SECURE") == "true"

	cfg.AuditWorkers = envInt("AUDIT_WORKERS", 16)
	cfg.AuditMaxAttempts = envInt("AUDIT_MAX_ATTEMPTS", 3)

	cfg.WSPingInterval = envDuration("WS_PING_INTERVAL", 30*time.Second)
	cfg.WSPongWait = envDuration("WS_PONG_WAIT", 60*time.Second)
	if cfg.WSPingInterval >= cfg.WSPongWait {
		return nil, fmt.Errorf("WS_PING_INTERVAL (%s) must be shorter than WS_PONG_WAIT (%s)",
			cfg.WSPingInterval, cfg.WSPongWait)
	}

	return cfg, nil
}

// envInt reads an env var as a positive int, returning def if missing or unparseable
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		slog.Warn("invalid env var, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

// envDuration reads an env var as a positive duration, returning def if missing or unparseable
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid env var, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}
