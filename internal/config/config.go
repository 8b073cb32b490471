// Package config provides centralized configuration management for the catalog.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Catalog  CatalogConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`

	// MaxBodyBytes caps JSON request bodies (default: 4MB)
	MaxBodyBytes int64 `env:"SERVER_MAX_BODY_BYTES" default:"4194304"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 20)
	MaxConns int `env:"DB_MAX_CONNS" default:"20"`

	// MinConns is the minimum number of connections to keep open (default: 4)
	MinConns int `env:"DB_MIN_CONNS" default:"4"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// AutoMigrate applies the embedded schema at startup (default: true)
	AutoMigrate bool `env:"DB_AUTO_MIGRATE" default:"true"`
}

// CacheConfig holds reference-cache settings.
type CacheConfig struct {
	// ResyncSchedule is a cron expression for full reloads from storage.
	// Empty disables the resync job (default: every 15 minutes)
	ResyncSchedule string `env:"CACHE_RESYNC_SCHEDULE" default:"@every 15m"`

	// RedisAddr enables cross-replica invalidation when set (default: disabled)
	RedisAddr string `env:"REDIS_ADDR"`

	// RedisPassword is the optional Redis AUTH password
	RedisPassword string `env:"REDIS_PASSWORD"`

	// RedisDB selects the Redis logical database (default: 0)
	RedisDB int `env:"REDIS_DB" default:"0"`

	// RedisChannel is the pub/sub channel for invalidations (default: llocg:cache)
	RedisChannel string `env:"REDIS_CHANNEL" default:"llocg:cache"`
}

// CatalogConfig holds card creation and read settings.
type CatalogConfig struct {
	// BulkMaxCards is the largest accepted bulk creation batch (default: 500)
	BulkMaxCards int `env:"CATALOG_BULK_MAX_CARDS" default:"500"`

	// BulkMaxConcurrent limits parallel bulk creations (default: 2)
	BulkMaxConcurrent int `env:"CATALOG_BULK_MAX_CONCURRENT" default:"2"`

	// BulkMaxWait is how long a bulk creation waits for a slot (default: 10s)
	BulkMaxWait time.Duration `env:"CATALOG_BULK_MAX_WAIT" default:"10s"`

	// ReadTimeout bounds a single full-card read (default: 5s)
	ReadTimeout time.Duration `env:"CATALOG_READ_TIMEOUT" default:"5s"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// WriteLimit is requests per minute for mutating endpoints (default: 30)
	WriteLimit int `env:"RATE_LIMIT_WRITE" default:"30"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey gates mutating routes behind X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// RedisEnabled reports whether cross-replica invalidation is configured.
func (c *CacheConfig) RedisEnabled() bool {
	return c.RedisAddr != ""
}
