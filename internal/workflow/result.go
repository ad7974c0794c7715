package workflow

import (
	"time"

	"github.com/engine-agi/engine-core/internal/types"
)

// RunResult is the terminal report of one workflow run.
type RunResult struct {
	RunID        types.ID
	WorkflowID   types.ID
	WorkflowName string

	// Status is completed, failed, or cancelled.
	Status RunStatus

	// Err carries the fatal error of a failed or cancelled run.
	Err error

	// Context is the final execution context snapshot.
	Context map[string]any

	// Vertices holds the terminal record of every vertex.
	Vertices map[string]VertexRunState

	// Supersteps is the number of supersteps executed.
	Supersteps int

	StartedAt time.Time
	Duration  time.Duration
}

// Succeeded reports whether the run completed without a fatal error.
func (r *RunResult) Succeeded() bool {
	return r.Status == RunStatusCompleted
}

// Output returns the output map of the given vertex, or nil if the
// vertex never succeeded.
func (r *RunResult) Output(vertexID string) map[string]any {
	vs, ok := r.Vertices[vertexID]
	if !ok || vs.Result == nil {
		return nil
	}
	return vs.Result.Output
}

// StatusCounts tallies vertices by terminal status.
func (r *RunResult) StatusCounts() map[VertexStatus]int {
	out := make(map[VertexStatus]int)
	for _, vs := range r.Vertices {
		out[vs.Status]++
	}
	return out
}
