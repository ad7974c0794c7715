// Package config loads engine configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the runtime configuration of the engine process. Every
// field is read from an ENGINE_-prefixed environment variable with a
// sensible default.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"ENGINE_LOG_LEVEL" envDefault:"info"`

	// LogFormat is text or json.
	LogFormat string `env:"ENGINE_LOG_FORMAT" envDefault:"text"`

	// MaxParallel bounds per-superstep concurrency.
	MaxParallel int `env:"ENGINE_MAX_PARALLEL" envDefault:"8"`

	// MaxSupersteps bounds run length.
	MaxSupersteps int `env:"ENGINE_MAX_SUPERSTEPS" envDefault:"100"`

	// DefaultTimeout bounds a vertex attempt when the workflow sets
	// none. Zero disables the deadline.
	DefaultTimeout time.Duration `env:"ENGINE_DEFAULT_TIMEOUT" envDefault:"0"`

	// DefaultMaxAttempts applies when the workflow sets no retry
	// policy.
	DefaultMaxAttempts int `env:"ENGINE_DEFAULT_MAX_ATTEMPTS" envDefault:"1"`

	// DefaultRetryDelay is the base delay between attempts.
	DefaultRetryDelay time.Duration `env:"ENGINE_DEFAULT_RETRY_DELAY" envDefault:"1s"`

	// MetricsAddr is the listen address for the Prometheus endpoint.
	// Empty disables it.
	MetricsAddr string `env:"ENGINE_METRICS_ADDR" envDefault:""`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MaxParallel < 1 {
		return fmt.Errorf("ENGINE_MAX_PARALLEL must be positive, got %d", c.MaxParallel)
	}
	if c.MaxSupersteps < 1 {
		return fmt.Errorf("ENGINE_MAX_SUPERSTEPS must be positive, got %d", c.MaxSupersteps)
	}
	if c.DefaultMaxAttempts < 1 {
		return fmt.Errorf("ENGINE_DEFAULT_MAX_ATTEMPTS must be positive, got %d", c.DefaultMaxAttempts)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("ENGINE_LOG_LEVEL must be debug, info, warn, or error, got %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("ENGINE_LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// SlogLevel maps LogLevel to its slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
