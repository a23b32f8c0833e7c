package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("DB_USER", "vidtube")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "3306")
	t.Setenv("DB_NAME", "vidtube")
	t.Setenv("ACCESS_TOKEN_SECRET", "access-secret")
	t.Setenv("REFRESH_TOKEN_SECRET", "refresh-secret")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "15")
	t.Setenv("REFRESH_TOKEN_TTL_DAYS", "10")
	t.Setenv("BCRYPT_COST", "4")
}

func TestLoad(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("COOKIE_SECURE", "false")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL())
	assert.Equal(t, 10*24*time.Hour, cfg.RefreshTTL())
	assert.False(t, cfg.CookieSecure)
	assert.True(t, cfg.MigrateOnStart)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	base := Config{
		AccessTokenSecret:  "a",
		RefreshTokenSecret: "b",
		AccessTTLMin:       1,
		RefreshTTLDays:     1,
		BcryptCost:         10,
	}
	require.NoError(t, base.Validate())

	same := base
	same.RefreshTokenSecret = "a"
	assert.Error(t, same.Validate())

	badCost := base
	badCost.BcryptCost = 99
	assert.Error(t, badCost.Validate())

	noTTL := base
	noTTL.AccessTTLMin = 0
	assert.Error(t, noTTL.Validate())
}

func TestLoadRateLimitConfig_Normalizes(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 2*time.Second, cfg.RefillInterval)
	assert.Equal(t, 10*time.Second, cfg.TTL)
}

func TestLoadCacheConfig_Methods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head ,")
	cfg := LoadCacheConfig()
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Methods)
}

func TestLoadQueueConfig_FallsBackToAMQPURL(t *testing.T) {
	t.Setenv("RABBITMQ_URL", "")
	t.Setenv("AMQP_URL", "amqp://u:p@mq:5672/")
	cfg := LoadQueueConfig()
	assert.Equal(t, "amqp://u:p@mq:5672/", cfg.URL)
	assert.False(t, cfg.PublishEnabled)
}

func TestLoadDotEnv(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("VIDTUBE_DOTENV_PROBE=hello\n"), 0o600))
	t.Setenv("VIDTUBE_DOTENV_PROBE", "")
	require.NoError(t, os.Unsetenv("VIDTUBE_DOTENV_PROBE"))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "hello", os.Getenv("VIDTUBE_DOTENV_PROBE"))
}
