package workflow

import (
	"fmt"
	"time"
)

// Build-time validation errors. Builder.Build accumulates these and
// joins them, so callers see every defect in one pass.

// DuplicateVertexError indicates a vertex ID was added twice.
type DuplicateVertexError struct {
	ID string
}

func (e *DuplicateVertexError) Error() string {
	return fmt.Sprintf("duplicate vertex %q", e.ID)
}

// UnknownVertexError indicates an edge references a vertex that was
// never added.
type UnknownVertexError struct {
	ID   string
	Edge string // "from" or "to"
}

func (e *UnknownVertexError) Error() string {
	return fmt.Sprintf("edge %s endpoint references unknown vertex %q", e.Edge, e.ID)
}

// NoEntryPointError indicates a non-empty graph has no vertex eligible
// to run in the first superstep.
type NoEntryPointError struct{}

func (e *NoEntryPointError) Error() string {
	return "workflow has no entry point: every vertex has unsatisfiable dependencies"
}

// InvalidErrorEdgeError indicates an error edge whose target can reach
// its source through plain or conditional edges. Such an edge would
// retry into the failure that fired it.
type InvalidErrorEdgeError struct {
	From string
	To   string
}

func (e *InvalidErrorEdgeError) Error() string {
	return fmt.Sprintf("error edge %s -> %s: target can reach source, recovery would loop into the failure", e.From, e.To)
}

// InvalidVertexError indicates a vertex was added with missing or
// malformed fields.
type InvalidVertexError struct {
	ID     string
	Reason string
}

func (e *InvalidVertexError) Error() string {
	return fmt.Sprintf("invalid vertex %q: %s", e.ID, e.Reason)
}

// InvalidEdgeError indicates an edge was added with missing or
// malformed fields.
type InvalidEdgeError struct {
	From   string
	To     string
	Reason string
}

func (e *InvalidEdgeError) Error() string {
	return fmt.Sprintf("invalid edge %s -> %s: %s", e.From, e.To, e.Reason)
}

// Run error codes. CodeTimeout marks a fatal failure whose terminal
// attempt timed out; CodeFatalVertex covers every other unhandled
// vertex failure.
const (
	CodeTimeout        = "timeout"
	CodeIterationLimit = "iteration_limit"
	CodeCancelled      = "cancelled"
	CodeFatalVertex    = "fatal_vertex"
)

// RunError is the top-level error for a failed or cancelled run.
type RunError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RunError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("workflow run error [%s]: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("workflow run error [%s]: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *RunError) Unwrap() error { return e.Cause }

// VertexError wraps a failure of a single vertex with run context.
type VertexError struct {
	VertexID  string
	Attempt   int
	Superstep int
	Cause     error
}

func (e *VertexError) Error() string {
	return fmt.Sprintf("vertex %q failed (attempt %d, superstep %d): %v", e.VertexID, e.Attempt, e.Superstep, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *VertexError) Unwrap() error { return e.Cause }

// TimeoutError indicates a single attempt exceeded its deadline. A
// timed-out attempt counts against the retry budget like any other
// failed attempt.
type TimeoutError struct {
	VertexID string
	Attempt  int
	Timeout  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("vertex %q attempt %d timed out after %s", e.VertexID, e.Attempt, e.Timeout)
}
