// Package config provides 12-factor configuration management for the demo
// services.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Service: tenant selection and resource metadata (name, version, env)
//   - Exporter: collector endpoint, transport, batching and retry knobs
//   - Sim: operation simulator tuning (cache hit rate, seed)
//   - Logging: log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, TENANT
//   - OTEL_SERVICE_NAME, SERVICE_VERSION, DEPLOY_ENV
//   - OTEL_EXPORTER_OTLP_ENDPOINT, EXPORT_PROTOCOL, OTLP_INSECURE
//   - EXPORT_QUEUE_CAPACITY, EXPORT_BATCH_SIZE, EXPORT_FLUSH_INTERVAL
//   - EXPORT_MAX_RETRIES, EXPORT_RETRY_BACKOFF
//   - CACHE_HIT_RATE, SIM_SEED
//   - LOG_LEVEL, LOG_FORMAT, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
