package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 0.1, cfg.Pipeline.TestFraction)
	assert.Equal(t, int64(42), cfg.Pipeline.Seed)
	assert.Equal(t, 9, cfg.Feeds.Weather.MetadataRows)
	assert.Equal(t, 10*time.Second, cfg.Feeds.Holidays.Timeout)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte(`
server:
  port: 9000
pipeline:
  aggregation: mean
  regression:
    alpha: 0.5
feeds:
  holidays:
    region: CH
    years: [2021, 2022]
storage:
  postgres_dsn: postgres://localhost/darkzones
`)
	require.NoError(t, os.WriteFile(path, body, 0o600))

	t.Setenv("DARKZONES_SERVER__PORT", "9191")
	t.Setenv("DARKZONES_PIPELINE__POI_WORKERS", "4")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Pipeline.POIWorkers)
	assert.Equal(t, "mean", cfg.Pipeline.Aggregation)
	assert.Equal(t, 0.5, cfg.Pipeline.Regression.Alpha)
	assert.Equal(t, 500, cfg.Pipeline.Regression.MaxIter)
	assert.Equal(t, "CH", cfg.Feeds.Holidays.Region)
	assert.Equal(t, []int{2021, 2022}, cfg.Feeds.Holidays.Years)
	assert.Equal(t, "postgres://localhost/darkzones", cfg.Storage.PostgresDSN)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }},
		{"test fraction", func(c *Config) { c.Pipeline.TestFraction = 1 }},
		{"workers", func(c *Config) { c.Pipeline.POIWorkers = 0 }},
		{"alpha", func(c *Config) { c.Pipeline.Regression.Alpha = -1 }},
		{"max iter", func(c *Config) { c.Pipeline.Regression.MaxIter = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "feeds.weather.metadata_rows", envKey("DARKZONES_FEEDS__WEATHER__METADATA_ROWS"))
}
