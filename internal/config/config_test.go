package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "LOG_FILE", "STORAGE_TYPE", "REDIS_URL", "DATABASE_URL",
		"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "OAUTH_REDIRECT_URL", "COOKIE_SECURE",
		"AUDIT_WORKERS", "AUDIT_MAX_ATTEMPTS", "WS_PING_INTERVAL", "WS_PONG_WAIT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, StorageMemory, cfg.StorageType)
	assert.False(t, cfg.CookieSecure)
	assert.False(t, cfg.LoginEnabled())
	assert.Equal(t, 16, cfg.AuditWorkers)
	assert.Equal(t, 3, cfg.AuditMaxAttempts)
	assert.Equal(t, 30*time.Second, cfg.WSPingInterval)
	assert.Equal(t, 60*time.Second, cfg.WSPongWait)
}

func TestLoadStorageType(t *testing.T) {
	t.Run("redis requires REDIS_URL", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STORAGE_TYPE", "redis")

		_, err := Load()
		assert.ErrorContains(t, err, "REDIS_URL")
	})

	t.Run("redis with url", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STORAGE_TYPE", "Redis")
		t.Setenv("REDIS_URL", "redis://localhost:6379")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, StorageRedis, cfg.StorageType)
		assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	})

	t.Run("postgres requires DATABASE_URL", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STORAGE_TYPE", "postgres")

		_, err := Load()
		assert.ErrorContains(t, err, "DATABASE_URL")
	})

	t.Run("unknown type", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STORAGE_TYPE", "mongo")

		_, err := Load()
		assert.ErrorContains(t, err, "unknown STORAGE_TYPE")
	})
}

func TestLoadGoogleClient(t *testing.T) {
	t.Run("client id requires secret and redirect", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GOOGLE_CLIENT_ID", "id")

		_, err := Load()
		assert.ErrorContains(t, err, "GOOGLE_CLIENT_SECRET")

		t.Setenv("GOOGLE_CLIENT_SECRET", "secret")
		_, err = Load()
		assert.ErrorContains(t, err, "OAUTH_REDIRECT_URL")
	})

	t.Run("fully configured", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GOOGLE_CLIENT_ID", "id")
		t.Setenv("GOOGLE_CLIENT_SECRET", "secret")
		t.Setenv("OAUTH_REDIRECT_URL", "https://example.com/auth")

		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.LoginEnabled())
	})
}

func TestLoadLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
	}
	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("LOG_LEVEL", in)

			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, want, cfg.LogLevel)
		})
	}
}

func TestLoadNumericFallbacks(t *testing.T) {
	clearEnv(t)
	t.Setenv("AUDIT_WORKERS", "-4")
	t.Setenv("AUDIT_MAX_ATTEMPTS", "five")
	t.Setenv("WS_PING_INTERVAL", "10s")
	t.Setenv("WS_PONG_WAIT", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.AuditWorkers)
	assert.Equal(t, 3, cfg.AuditMaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.WSPingInterval)
	assert.Equal(t, 60*time.Second, cfg.WSPongWait)
}

func TestLoadRejectsPingSlowerThanPongWait(t *testing.T) {
	clearEnv(t)
	t.Setenv("WS_PING_INTERVAL", "2m")
	t.Setenv("WS_PONG_WAIT", "1m")

	_, err := Load()
	assert.ErrorContains(t, err, "WS_PING_INTERVAL")
}

func TestLoadCookieSecure(t *testing.T) {
	clearEnv(t)
	t.Setenv("COOKIE_SECURE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.CookieSecure)
}
