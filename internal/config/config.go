// Package config provides centralized configuration management for the
// stratigraphy server and CLI. It loads configuration from environment
// variables with sensible defaults and validates all settings on startup to
// fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"

	"github.com/JonMunkholm/harris/internal/core"
	"github.com/JonMunkholm/harris/internal/matrix"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Import   ImportConfig
	Engine   EngineConfig
	Autosave AutosaveConfig
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
}

// StorageConfig selects and configures the snapshot store.
type StorageConfig struct {
	// Driver is one of memory, sqlite or postgres (default: sqlite)
	Driver string `env:"STORAGE_DRIVER" default:"sqlite"`

	// SQLitePath is the database file for the sqlite driver
	SQLitePath string `env:"SQLITE_PATH" default:"harris.db"`

	// URL is the PostgreSQL connection string, required for the postgres driver.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"4"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// ImportConfig holds CSV import settings.
type ImportConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 10MB)
	MaxFileSize int64 `env:"IMPORT_MAX_FILE_SIZE" default:"10485760"`

	// MaxConcurrent is the maximum number of imports decoding at once (default: 2)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"2"`

	// MaxWaitTime is how long to wait for an import slot (default: 30s)
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"30s"`
}

// EngineConfig holds the stratigraphic engine settings.
type EngineConfig struct {
	// HistoryLimit caps the undo stack; 0 keeps every state (default: 0)
	HistoryLimit int `env:"ENGINE_HISTORY_LIMIT" default:"0"`

	// LevelStrategy is bfs or longest (default: bfs)
	LevelStrategy string `env:"ENGINE_LEVEL_STRATEGY" default:"bfs"`

	// MaxCyclesReported bounds the cycles listed by a rejected import (default: 10)
	MaxCyclesReported int `env:"ENGINE_MAX_CYCLES_REPORTED" default:"10"`

	// ShowRedundancy is the default for views that do not ask (default: false)
	ShowRedundancy bool `env:"ENGINE_SHOW_REDUNDANCY" default:"false"`
}

// AutosaveConfig holds background persistence settings.
type AutosaveConfig struct {
	Enabled  bool          `env:"AUTOSAVE_ENABLED" default:"true"`
	Interval time.Duration `env:"AUTOSAVE_INTERVAL" default:"30s"`
}

// RateLimitConfig holds rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the rate limit per client IP (default: 300)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey enables X-API-Key authentication on /api routes
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
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

// Options converts the engine section to engine options. The strategy has
// already been checked by Validate.
func (c EngineConfig) Options() matrix.Options {
	strategy, _ := matrix.ParseLevelStrategy(c.LevelStrategy)
	return matrix.Options{
		HistoryLimit:      c.HistoryLimit,
		LevelStrategy:     strategy,
		MaxCyclesReported: c.MaxCyclesReported,
	}
}

// Limiter builds the import limiter described by the import section.
func (c ImportConfig) Limiter() *core.ImportLimiter {
	return core.NewImportLimiter(c.MaxConcurrent, c.MaxWaitTime)
}

// Scheduler returns the autosave scheduler settings.
func (c AutosaveConfig) Scheduler() core.AutosaveConfig {
	return core.AutosaveConfig{Interval: c.Interval}
}
