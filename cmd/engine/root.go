package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/engine-agi/engine-core/internal/config"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "engine",
		Short: "Superstep workflow engine",
		Long: `engine validates and runs workflow definitions.

Workflows are YAML files declaring vertices bound to executors and the
plain, conditional, and error edges between them. Configuration is read
from ENGINE_-prefixed environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newRunCmd())
	return cmd
}

// loadConfig reads environment configuration and builds the process
// logger.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return cfg, slog.New(handler), nil
}
