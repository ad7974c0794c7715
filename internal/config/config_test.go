package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 8, cfg.MaxParallel)
	assert.Equal(t, 100, cfg.MaxSupersteps)
	assert.Equal(t, time.Duration(0), cfg.DefaultTimeout)
	assert.Equal(t, 1, cfg.DefaultMaxAttempts)
	assert.Equal(t, time.Second, cfg.DefaultRetryDelay)
	assert.Empty(t, cfg.MetricsAddr)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("ENGINE_LOG_LEVEL", "debug")
	t.Setenv("ENGINE_LOG_FORMAT", "json")
	t.Setenv("ENGINE_MAX_PARALLEL", "16")
	t.Setenv("ENGINE_DEFAULT_TIMEOUT", "45s")
	t.Setenv("ENGINE_METRICS_ADDR", ":9102")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 16, cfg.MaxParallel)
	assert.Equal(t, 45*time.Second, cfg.DefaultTimeout)
	assert.Equal(t, ":9102", cfg.MetricsAddr)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero parallel", "ENGINE_MAX_PARALLEL", "0"},
		{"negative supersteps", "ENGINE_MAX_SUPERSTEPS", "-1"},
		{"zero attempts", "ENGINE_DEFAULT_MAX_ATTEMPTS", "0"},
		{"bad level", "ENGINE_LOG_LEVEL", "verbose"},
		{"bad format", "ENGINE_LOG_FORMAT", "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}

	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.level}
		assert.Equal(t, tt.want, cfg.SlogLevel())
	}
}
