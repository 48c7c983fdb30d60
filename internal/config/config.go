package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Service   ServiceConfig
	Exporter  ExporterConfig
	Sim       SimConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// ServiceConfig identifies the tenant and the resource metadata attached to
// every exported span batch.
type ServiceConfig struct {
	Tenant      string `envconfig:"TENANT" default:"bookshop"`
	Name        string `envconfig:"OTEL_SERVICE_NAME" default:"bookshop-service"`
	Version     string `envconfig:"SERVICE_VERSION" default:"0.1.0"`
	Environment string `envconfig:"DEPLOY_ENV" default:"development"`
}

// ExporterConfig holds span export pipeline configuration.
type ExporterConfig struct {
	Endpoint      string        `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
	Protocol      string        `envconfig:"EXPORT_PROTOCOL" default:"grpc"`
	Insecure      bool          `envconfig:"OTLP_INSECURE" default:"true"`
	QueueCapacity int           `envconfig:"EXPORT_QUEUE_CAPACITY" default:"2048"`
	BatchSize     int           `envconfig:"EXPORT_BATCH_SIZE" default:"512"`
	FlushInterval time.Duration `envconfig:"EXPORT_FLUSH_INTERVAL" default:"5s"`
	MaxRetries    int           `envconfig:"EXPORT_MAX_RETRIES" default:"3"`
	RetryBackoff  time.Duration `envconfig:"EXPORT_RETRY_BACKOFF" default:"250ms"`
}

// SimConfig holds operation simulator configuration.
type SimConfig struct {
	CacheHitRate float64 `envconfig:"CACHE_HIT_RATE" default:"0.3333"`
	Seed         int64   `envconfig:"SIM_SEED" default:"0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Format      string `envconfig:"LOG_FORMAT" default:"json"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Service: ServiceConfig{
			Tenant:      "bookshop",
			Name:        "bookshop-service",
			Version:     "0.1.0",
			Environment: "development",
		},
		Exporter: ExporterConfig{
			Endpoint:      "localhost:4317",
			Protocol:      "grpc",
			Insecure:      true,
			QueueCapacity: 2048,
			BatchSize:     512,
			FlushInterval: 5 * time.Second,
			MaxRetries:    3,
			RetryBackoff:  250 * time.Millisecond,
		},
		Sim: SimConfig{
			CacheHitRate: 0.3333,
		},
		Logging: LogConfig{
			Level:  "info",
			Format: "json",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
