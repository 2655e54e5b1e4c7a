package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "environment: test\n")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test", c.Environment)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, "clickhouse", c.Backend.Type)
	assert.Equal(t, 7, c.Forecast.LookbackWindow)
	assert.InDelta(t, 0.3, c.Forecast.SmoothingFactor, 1e-12)
	assert.Equal(t, 30, c.Forecast.HistoryDays)
	assert.Equal(t, 6*time.Hour, c.Collector.Interval)
	assert.Equal(t, 10*time.Second, c.Platforms.TikTok.Timeout)
}

func TestLoadOverridesDefaultsFromFile(t *testing.T) {
	path := writeConfig(t, `
environment: staging
forecast:
  lookback_window: 14
  smoothing_factor: 0.5
collector:
  interval: 1h
`)

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 14, c.Forecast.LookbackWindow)
	assert.InDelta(t, 0.5, c.Forecast.SmoothingFactor, 1e-12)
	assert.Equal(t, time.Hour, c.Collector.Interval)
	assert.Equal(t, 7, c.Forecast.HorizonDays)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown backend", func(c *Config) { c.Backend.Type = "postgres" }},
		{"kafka without brokers", func(c *Config) { c.Backend.Type = "kafka"; c.Kafka.Brokers = nil }},
		{"zero lookback", func(c *Config) { c.Forecast.LookbackWindow = 0 }},
		{"alpha above one", func(c *Config) { c.Forecast.SmoothingFactor = 1.5 }},
		{"alpha zero", func(c *Config) { c.Forecast.SmoothingFactor = 0 }},
		{"horizon too long", func(c *Config) { c.Forecast.HorizonDays = 31 }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"BACKEND":         "kafka",
		"KAFKA_BROKERS":   "k1:9092,k2:9092",
		"REDIS_ADDR":      "cache:6379",
		"TRENDPULSE_PORT": "9090",
	}

	c := Default()
	c.applyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "kafka", c.Backend.Type)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.True(t, c.Redis.Enabled)
	assert.Equal(t, "cache:6379", c.Redis.Addr)
	assert.Equal(t, 9090, c.Server.Port)
	assert.NoError(t, c.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
