// Package config provides centralized configuration management for the application.
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
	Server  ServerConfig
	Import  ImportConfig
	Logging LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	// PORT is honored for platforms that inject it
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`

	// TrustedProxies lists proxy CIDRs whose X-Real-IP and X-Forwarded-For
	// headers are believed (comma-separated)
	TrustedProxies []string `env:"SERVER_TRUSTED_PROXIES"`
}

// ImportConfig holds the defaults applied to imports that do not come with
// their own layout, plus limits for the HTTP surface.
type ImportConfig struct {
	// Delimiter is the field delimiter; "tab" and "\t" mean a tab (default: ,)
	Delimiter string `env:"IMPORT_DELIMITER" default:","`

	// HasHeader skips the first non-blank line (default: false)
	HasHeader bool `env:"IMPORT_HAS_HEADER" default:"false"`

	// AutoTruncate is none, trim or zap (default: none)
	AutoTruncate string `env:"IMPORT_AUTO_TRUNCATE" default:"none"`

	// BlankRows is the blank row policy (default: allow)
	BlankRows string `env:"IMPORT_BLANK_ROWS" default:"allow"`

	// DataErrors is throw, embed or ignore_and_use_default_value (default: throw)
	DataErrors string `env:"IMPORT_DATA_ERRORS" default:"throw"`

	// Encoding is the character encoding of uploaded text (default: utf-8)
	Encoding string `env:"IMPORT_ENCODING" default:"utf-8"`

	// MaxLineLength is the longest accepted line in bytes (default: 1MB)
	MaxLineLength int `env:"IMPORT_MAX_LINE_LENGTH" default:"1048576"`

	// MaxBodySize is the maximum request body in bytes (default: 32MB)
	MaxBodySize int64 `env:"IMPORT_MAX_BODY_SIZE" default:"33554432"`

	// MaxConcurrent is the maximum number of parallel imports (default: 4)
	MaxConcurrent int `env:"IMPORT_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for an import slot (default: 10s)
	MaxWaitTime time.Duration `env:"IMPORT_MAX_WAIT_TIME" default:"10s"`

	// PreviewRows is the number of rows shown by the preview page (default: 100)
	PreviewRows int `env:"IMPORT_PREVIEW_ROWS" default:"100"`

	// Layouts is a comma-separated list of layout files served by name
	Layouts []string `env:"IMPORT_LAYOUTS"`
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
