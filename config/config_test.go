package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alejandrodnm/pairbot/config"
	"github.com/alejandrodnm/pairbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_ShippedConfig(t *testing.T) {
	cfg, err := config.Load("config.yaml")
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Engine.Lookback)
	assert.InDelta(t, 0.05, cfg.Engine.PValueThreshold, 1e-12)
	assert.Equal(t, "1d", cfg.Fetch.Interval)
	assert.Equal(t, time.Duration(0), cfg.WatchInterval())
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "log:\n  level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.Data.Dir)
	assert.Equal(t, 60, cfg.Engine.Lookback)
	assert.InDelta(t, 0.05, cfg.Engine.PValueThreshold, 1e-12)
	assert.InDelta(t, 2.0, cfg.Engine.EntryThreshold, 1e-12)
	assert.InDelta(t, 0.5, cfg.Engine.ExitThreshold, 1e-12)
	assert.Equal(t, "1d", cfg.Fetch.Interval)
	assert.Equal(t, "pairbot.db", cfg.Storage.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Empty(t, cfg.Metrics.Addr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("PAIRBOT_DATA_DIR", "/tmp/prices")
	t.Setenv("PAIRBOT_DB", ":memory:")

	cfg, err := config.Load(writeConfig(t, "data:\n  dir: ignored\nstorage:\n  dsn: ignored.db\n"))
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "/tmp/prices", cfg.Data.Dir)
	assert.Equal(t, ":memory:", cfg.Storage.DSN)
}

func TestLoad_InvalidThresholds(t *testing.T) {
	_, err := config.Load(writeConfig(t, "engine:\n  entry_threshold: 1.0\n  exit_threshold: 1.5\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidThresholds)
}

func TestLoad_ExitThresholdZeroIsKept(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, "engine:\n  exit_threshold: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.Engine.ExitThreshold)
	assert.InDelta(t, 2.0, cfg.Engine.EntryThreshold, 1e-12)
}

func TestLoad_InvalidInterval(t *testing.T) {
	_, err := config.Load(writeConfig(t, "fetch:\n  interval: 2h\n"))
	assert.ErrorContains(t, err, "fetch.interval")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadOrDefault(t *testing.T) {
	cfg, found, err := config.LoadOrDefault(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, config.Default(), cfg)

	cfg, found, err = config.LoadOrDefault(writeConfig(t, "engine:\n  lookback: 90\n"))
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 90, cfg.Engine.Lookback)

	_, _, err = config.LoadOrDefault(writeConfig(t, "engine: [\n"))
	assert.ErrorContains(t, err, "parse YAML")
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "https://query1.finance.yahoo.com", cfg.Fetch.BaseURL)
	assert.InDelta(t, 0.5, cfg.Engine.ExitThreshold, 1e-12)
}
