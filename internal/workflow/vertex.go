package workflow

import (
	"math"
	"time"

	"github.com/engine-agi/engine-core/internal/executor"
)

// BackoffStrategy defines the strategy for calculating retry delays.
type BackoffStrategy string

const (
	// BackoffConstant returns a constant delay for all retry attempts.
	BackoffConstant BackoffStrategy = "constant"
	// BackoffLinear increases the delay linearly with each retry attempt.
	BackoffLinear BackoffStrategy = "linear"
	// BackoffExponential increases the delay exponentially with each retry attempt.
	BackoffExponential BackoffStrategy = "exponential"
)

// VertexStatus represents the execution status of a workflow vertex.
type VertexStatus string

const (
	VertexStatusPending   VertexStatus = "pending"
	VertexStatusReady     VertexStatus = "ready"
	VertexStatusRunning   VertexStatus = "running"
	VertexStatusSucceeded VertexStatus = "succeeded"
	VertexStatusFailed    VertexStatus = "failed"
	VertexStatusSkipped   VertexStatus = "skipped"
)

// IsTerminal returns true once a vertex can no longer change status
// within the current run.
func (s VertexStatus) IsTerminal() bool {
	switch s {
	case VertexStatusSucceeded, VertexStatusFailed, VertexStatusSkipped:
		return true
	default:
		return false
	}
}

// Vertex is one schedulable unit of work: an executor bound to a task,
// with optional per-vertex timeout and retry policy. Vertices are
// created at build time and immutable thereafter; all mutable run
// bookkeeping lives in VertexRunState.
type Vertex struct {
	// ID uniquely identifies the vertex within its workflow.
	ID string `json:"id"`

	// Executor performs the vertex's work. May be a single agent, a
	// team, or a function; the engine does not care which.
	Executor executor.Executor `json:"-"`

	// Task is the opaque work description handed to the executor.
	Task executor.Task `json:"task"`

	// Timeout bounds a single execution attempt. Zero means the
	// run-wide default applies.
	Timeout time.Duration `json:"timeout,omitempty"`

	// Retry overrides the run-wide retry policy for this vertex.
	Retry *RetryPolicy `json:"retry,omitempty"`

	// Metadata carries additional custom metadata for the vertex.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// RetryPolicy defines the retry behavior for a vertex. Attempts are
// sequential; between attempts the engine waits for the backoff delay.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the
	// first. Must be at least 1.
	MaxAttempts int `json:"max_attempts"`
	// Backoff determines how delays are calculated between attempts.
	Backoff BackoffStrategy `json:"backoff"`
	// Delay is the base delay before a retry attempt.
	Delay time.Duration `json:"delay"`
	// MaxDelay caps the delay between attempts (exponential backoff).
	MaxDelay time.Duration `json:"max_delay,omitempty"`
	// Multiplier is the growth factor for exponential backoff.
	Multiplier float64 `json:"multiplier,omitempty"`
}

// RetryDelay calculates the delay before the given retry. attempt is
// the number of the attempt that just failed, starting at 1.
func (rp *RetryPolicy) RetryDelay(attempt int) time.Duration {
	switch rp.Backoff {
	case BackoffLinear:
		return rp.Delay * time.Duration(attempt)
	case BackoffExponential:
		multiplier := rp.Multiplier
		if multiplier <= 1 {
			multiplier = 2
		}
		delay := time.Duration(float64(rp.Delay) * math.Pow(multiplier, float64(attempt-1)))
		if rp.MaxDelay > 0 && delay > rp.MaxDelay {
			return rp.MaxDelay
		}
		return delay
	default:
		return rp.Delay
	}
}
