package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "https://api.exchangerate-api.com/v4/latest", cfg.Exchange.ApiUrl)
	assert.Equal(t, "USD", cfg.Exchange.BaseCurrency)
	assert.Equal(t, time.Hour, cfg.Exchange.FreshnessWindow)
	assert.Equal(t, 10*time.Second, cfg.Exchange.HTTPTimeout)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, time.Duration(0), cfg.Scheduler.Interval)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("CURRENCY_EXCHANGE_RATE_FALLBACK_RATES", "EUR:0.9,GBP:0.8")
	t.Setenv("CURRENCY_EXCHANGE_RATE_FRESHNESS_WINDOW", "30m")
	t.Setenv("CURRENCY_EXCHANGE_RATE_STRICT_CODES", "true")
	t.Setenv("CURRENCY_STORAGE_DRIVER", "redis")
	t.Setenv("CURRENCY_REDIS_URL", "redis://cache:6379/1")
	t.Setenv("CURRENCY_STORAGE_KEY_PREFIX", "tenant-a:")
	t.Setenv("CURRENCY_SCHEDULER_INTERVAL", "15m")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"EUR": 0.9, "GBP": 0.8}, cfg.Exchange.FallbackRates)
	assert.Equal(t, 30*time.Minute, cfg.Exchange.FreshnessWindow)
	assert.True(t, cfg.Exchange.StrictCodes)
	assert.Equal(t, "redis://cache:6379/1", cfg.StorageDSN())
	assert.Equal(t, "tenant-a:", cfg.Storage.KeyPrefix)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.Interval)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("CURRENCY_SERVER_PORT=9191\nCURRENCY_LOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("CURRENCY_SERVER_PORT")
		os.Unsetenv("CURRENCY_LOG_LEVEL")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("CURRENCY_EXCHANGE_RATE_HTTP_TIMEOUT", "soon")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestMaskValue(t *testing.T) {
	assert.Equal(t, "", maskValue(""))
	assert.Equal(t, "****", maskValue("secret"))
	assert.Equal(t, "po****able", maskValue("postgres://u:p@db/rates?sslmode=disable"))
}
