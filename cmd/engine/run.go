package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/engine-agi/engine-core/internal/metrics"
	"github.com/engine-agi/engine-core/internal/workflow"
)

func newRunCmd() *cobra.Command {
	var (
		inputs      []string
		maxParallel int
		quiet       bool
	)

	cmd := &cobra.Command{
		Use:   "run <workflow.yaml>",
		Short: "Run a workflow definition with echo executors",
		Long: `Run a workflow definition end to end. Executors are resolved to echo
executors that return their task input, which exercises the full
scheduling, retry, and edge semantics without live agents. Initial
context values are set with --input key=value.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			def, err := workflow.LoadDefinition(args[0])
			if err != nil {
				return err
			}
			wf, err := workflow.BuildWorkflow(def, echoRegistry{})
			if err != nil {
				return fmt.Errorf("invalid workflow: %w", err)
			}

			initial := make(map[string]any, len(inputs))
			for _, kv := range inputs {
				key, value, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("--input %q: want key=value", kv)
				}
				initial[key] = value
			}

			engineOpts := []workflow.EngineOption{workflow.WithLogger(logger)}
			var observers workflow.MultiObserver
			if !quiet {
				observers = append(observers, workflow.NewLogObserver(logger))
			}
			if cfg.MetricsAddr != "" {
				observers = append(observers, metrics.NewCollector(prometheus.DefaultRegisterer))
				go serveMetrics(cfg.MetricsAddr, logger)
			}
			if len(observers) > 0 {
				engineOpts = append(engineOpts, workflow.WithObserver(observers))
			}
			switch {
			case maxParallel > 0:
				engineOpts = append(engineOpts, workflow.WithMaxParallel(maxParallel))
			case cfg.MaxParallel > 0:
				engineOpts = append(engineOpts, workflow.WithMaxParallel(cfg.MaxParallel))
			}

			engine := workflow.NewEngine(engineOpts...)
			result, runErr := engine.Execute(cmd.Context(), wf, initial)

			printResult(cmd, result)
			return runErr
		},
	}

	cmd.Flags().StringArrayVar(&inputs, "input", nil, "initial context value, key=value (repeatable)")
	cmd.Flags().IntVar(&maxParallel, "max-parallel", 0, "override per-superstep concurrency")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress per-vertex progress logging")
	return cmd
}

func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics endpoint failed", "addr", addr, "error", err)
	}
}

func printResult(cmd *cobra.Command, result *workflow.RunResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: %s in %d supersteps (%s)\n",
		result.RunID, result.Status, result.Supersteps, result.Duration)

	ids := make([]string, 0, len(result.Vertices))
	for id := range result.Vertices {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		vs := result.Vertices[id]
		line := fmt.Sprintf("  %-20s %s", id, vs.Status)
		if vs.Attempts > 1 {
			line += fmt.Sprintf(" (attempts: %d)", vs.Attempts)
		}
		if vs.Err != nil {
			line += fmt.Sprintf(" error: %v", vs.Err)
		}
		fmt.Fprintln(out, line)
	}

	if result.Succeeded() {
		if data, err := json.MarshalIndent(result.Context, "", "  "); err == nil {
			fmt.Fprintf(out, "final context:\n%s\n", data)
		}
	}
}
