// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	API      APIConfig
	Storage  StorageConfig
	Import   ImportConfig
	Paging   PagingConfig
	Cache    CacheConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// APIConfig points the client at the attendance backend.
type APIConfig struct {
	// BaseURL is the backend root, e.g. https://api.example.com/api (required)
	BaseURL string `env:"API_BASE_URL" envAlt:"UNITRACK_API_URL" required:"true"`

	// Timeout bounds every backend call (default: 30s)
	Timeout time.Duration `env:"API_TIMEOUT" default:"30s"`
}

// StorageConfig selects the persistence port behind the state containers.
type StorageConfig struct {
	// Driver is one of memory, postgres, redis (default: memory)
	Driver string `env:"STORAGE_DRIVER" default:"memory"`

	// DatabaseURL is the PostgreSQL connection string, required for postgres.
	DatabaseURL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	RedisAddr     string `env:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" default:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" default:"unitrack:"`
}

// ImportConfig holds roster import settings.
type ImportConfig struct {
	// MaxFileSize is the maximum accepted upload in bytes (default: 5MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"5242880"`

	// MaxRows caps data rows per import (default: 5000)
	MaxRows int `env:"IMPORT_MAX_ROWS" default:"5000"`

	// PendingTTL is how long a previewed import waits for confirmation (default: 15m)
	PendingTTL time.Duration `env:"IMPORT_PENDING_TTL" default:"15m"`

	// MaxConcurrent is the maximum number of parallel imports (default: 4)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for an import slot (default: 10s)
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"10s"`
}

// PagingConfig holds list paging settings.
type PagingConfig struct {
	PageSize int `env:"PAGE_SIZE" default:"8"`
}

// CacheConfig holds request dedupe settings.
type CacheConfig struct {
	// DedupeTimeout is how long a shared in-flight request is awaited (default: 10s)
	DedupeTimeout time.Duration `env:"DEDUPE_TIMEOUT" default:"10s"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// RequireAPIKey enables X-API-Key checks on every route but /health (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`

	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
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
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
