package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/engine-agi/engine-core/internal/executor"
	"github.com/engine-agi/engine-core/internal/workflow"
)

// echoRegistry resolves every executor name to an echo executor, so
// definitions can be validated and dry-run without live agents.
type echoRegistry struct{}

func (echoRegistry) Lookup(name string) (executor.Executor, bool) {
	return executor.Echo(name), true
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <workflow.yaml>",
		Short: "Validate a workflow definition",
		Long: `Parse a workflow definition, build its graph, and report structure:
vertex and edge counts, entry points, cycles, warnings, and for acyclic
graphs the superstep schedule.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := workflow.LoadDefinition(args[0])
			if err != nil {
				return err
			}

			wf, err := workflow.BuildWorkflow(def, echoRegistry{})
			if err != nil {
				return fmt.Errorf("invalid workflow: %w", err)
			}

			stats := wf.Stats()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "workflow %q is valid\n", wf.Name())
			fmt.Fprintf(out, "  vertices:     %d\n", stats.VertexCount)
			fmt.Fprintf(out, "  edges:        %d\n", stats.EdgeCount)
			fmt.Fprintf(out, "  entry points: %s\n", strings.Join(stats.EntryPoints, ", "))
			fmt.Fprintf(out, "  cyclic:       %v\n", stats.Cyclic)

			for _, warning := range wf.Warnings() {
				fmt.Fprintf(out, "  warning: %s\n", warning)
			}

			if !stats.Cyclic {
				levels, err := wf.ExecutionLevels()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, "  schedule:")
				for i, level := range levels {
					fmt.Fprintf(out, "    superstep %d: %s\n", i+1, strings.Join(level, ", "))
				}
			}
			return nil
		},
	}
}
