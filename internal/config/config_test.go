package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server config
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	// Service config
	assert.Equal(t, "bookshop", cfg.Service.Tenant)
	assert.Equal(t, "bookshop-service", cfg.Service.Name)
	assert.Equal(t, "development", cfg.Service.Environment)

	// Exporter config
	assert.Equal(t, "localhost:4317", cfg.Exporter.Endpoint)
	assert.Equal(t, "grpc", cfg.Exporter.Protocol)
	assert.True(t, cfg.Exporter.Insecure)
	assert.Equal(t, 512, cfg.Exporter.BatchSize)
	assert.Equal(t, 5*time.Second, cfg.Exporter.FlushInterval)

	// Sim config
	assert.InDelta(t, 0.3333, cfg.Sim.CacheHitRate, 0.0001)

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.False(t, cfg.Logging.Development)

	// Rate limit config
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadOrDefault(t *testing.T) {
	// Should return default when no env vars set
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "8000", cfg.Server.Port)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("TENANT", "todo")
	t.Setenv("OTEL_SERVICE_NAME", "todo-service")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("EXPORT_BATCH_SIZE", "64")
	t.Setenv("LOG_FORMAT", "logfmt")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "todo", cfg.Service.Tenant)
	assert.Equal(t, "todo-service", cfg.Service.Name)
	assert.Equal(t, "collector:4317", cfg.Exporter.Endpoint)
	assert.Equal(t, 64, cfg.Exporter.BatchSize)
	assert.Equal(t, "logfmt", cfg.Logging.Format)
}

func TestLoadInvalidValue(t *testing.T) {
	t.Setenv("EXPORT_FLUSH_INTERVAL", "not-a-duration")

	_, err := Load()
	assert.Error(t, err)
}
