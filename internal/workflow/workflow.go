package workflow

import (
	"time"

	"github.com/engine-agi/engine-core/internal/types"
)

// RunStatus represents the overall status of a workflow run.
type RunStatus string

const (
	// RunStatusInitializing indicates run state is being set up.
	RunStatusInitializing RunStatus = "initializing"

	// RunStatusRunning indicates the run is executing supersteps.
	RunStatusRunning RunStatus = "running"

	// RunStatusCompleted indicates the run finished without a fatal
	// failure.
	RunStatusCompleted RunStatus = "completed"

	// RunStatusFailed indicates the run terminated on a fatal failure
	// or exceeded its superstep bound.
	RunStatusFailed RunStatus = "failed"

	// RunStatusCancelled indicates the run was cancelled before
	// reaching a natural terminal state.
	RunStatusCancelled RunStatus = "cancelled"
)

// String returns the string representation of the run status.
func (s RunStatus) String() string { return string(s) }

// IsTerminal returns true if the status represents a terminal state.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled:
		return true
	default:
		return false
	}
}

// RunOptions carries the run-wide defaults and bounds configured at
// build time.
type RunOptions struct {
	// DefaultTimeout bounds a single attempt for vertices without
	// their own timeout. Zero means no deadline.
	DefaultTimeout time.Duration

	// DefaultRetry applies to vertices without their own retry
	// policy. Nil means one attempt, no retries.
	DefaultRetry *RetryPolicy

	// MaxParallel bounds how many vertices of one superstep execute
	// concurrently. Excess ready vertices queue in insertion order.
	MaxParallel int

	// MaxSupersteps bounds the superstep counter; exceeding it fails
	// the run with CodeIterationLimit. Guards unterminated cycles.
	MaxSupersteps int
}

// Workflow is the immutable directed graph produced by Builder.Build.
// Once built it is never mutated, so a single Workflow value is safe to
// execute repeatedly and concurrently.
type Workflow struct {
	id          types.ID
	name        string
	description string

	vertices map[string]*Vertex
	order    []string // vertex IDs in insertion order
	edges    []*Edge
	outgoing map[string][]*Edge
	incoming map[string][]*Edge

	entryPoints []string
	cyclic      bool
	warnings    []string

	opts      RunOptions
	createdAt time.Time
}

// ID returns the workflow's unique identifier.
func (w *Workflow) ID() types.ID { return w.id }

// Name returns the workflow's human-readable name.
func (w *Workflow) Name() string { return w.name }

// Description returns the workflow description.
func (w *Workflow) Description() string { return w.description }

// CreatedAt returns the build timestamp.
func (w *Workflow) CreatedAt() time.Time { return w.createdAt }

// Vertex returns the vertex with the given ID, or nil.
func (w *Workflow) Vertex(id string) *Vertex { return w.vertices[id] }

// Vertices returns all vertices in insertion order. The returned slice
// is freshly allocated; the vertices themselves are shared and must not
// be mutated.
func (w *Workflow) Vertices() []*Vertex {
	out := make([]*Vertex, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.vertices[id])
	}
	return out
}

// VertexIDs returns the vertex IDs in insertion order.
func (w *Workflow) VertexIDs() []string {
	out := make([]string, len(w.order))
	copy(out, w.order)
	return out
}

// Edges returns all edges in insertion order.
func (w *Workflow) Edges() []*Edge {
	out := make([]*Edge, len(w.edges))
	copy(out, w.edges)
	return out
}

// Outgoing returns the edges leaving the given vertex.
func (w *Workflow) Outgoing(id string) []*Edge { return w.outgoing[id] }

// Incoming returns the edges arriving at the given vertex.
func (w *Workflow) Incoming(id string) []*Edge { return w.incoming[id] }

// EntryPoints returns the IDs of vertices eligible to run in the first
// superstep, in insertion order.
func (w *Workflow) EntryPoints() []string {
	out := make([]string, len(w.entryPoints))
	copy(out, w.entryPoints)
	return out
}

// Cyclic reports whether the graph contains a cycle of plain or
// conditional edges. Such cycles model intentional iteration and are
// legal; the engine bounds them with MaxSupersteps.
func (w *Workflow) Cyclic() bool { return w.cyclic }

// Warnings returns non-fatal findings recorded at build time, such as
// a cycle with no conditional or error edge to break it.
func (w *Workflow) Warnings() []string {
	out := make([]string, len(w.warnings))
	copy(out, w.warnings)
	return out
}

// Options returns the run-wide options configured at build time.
func (w *Workflow) Options() RunOptions { return w.opts }

// Stats summarizes the workflow shape.
type Stats struct {
	VertexCount int      `json:"vertex_count"`
	EdgeCount   int      `json:"edge_count"`
	EntryPoints []string `json:"entry_points"`
	Cyclic      bool     `json:"cyclic"`
}

// Stats returns summary statistics for the workflow.
func (w *Workflow) Stats() Stats {
	return Stats{
		VertexCount: len(w.vertices),
		EdgeCount:   len(w.edges),
		EntryPoints: w.EntryPoints(),
		Cyclic:      w.cyclic,
	}
}

// ExecutionLevels previews the superstep schedule of an acyclic graph:
// level i holds the vertices whose longest path from an entry vertex is
// i edges, which is exactly the superstep they execute in when every
// vertex succeeds and every conditional edge fires. Returns an error
// for cyclic graphs, where no static preview exists.
func (w *Workflow) ExecutionLevels() ([][]string, error) {
	if w.cyclic {
		return nil, &RunError{
			Code:    CodeIterationLimit,
			Message: "cannot compute execution levels for a cyclic workflow",
		}
	}

	level := make(map[string]int, len(w.vertices))
	// Kahn order over plain/conditional edges; error edges do not
	// contribute to the static schedule.
	indeg := make(map[string]int, len(w.vertices))
	for _, e := range w.edges {
		if e.Kind != EdgeError {
			indeg[e.To]++
		}
	}

	queue := make([]string, 0, len(w.order))
	for _, id := range w.order {
		if indeg[id] == 0 {
			queue = append(queue, id)
		}
	}

	processed := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		processed++

		for _, e := range w.outgoing[id] {
			if e.Kind == EdgeError {
				continue
			}
			if next := level[id] + 1; next > level[e.To] {
				level[e.To] = next
			}
			indeg[e.To]--
			if indeg[e.To] == 0 {
				queue = append(queue, e.To)
			}
		}
	}

	if processed != len(w.vertices) {
		// Unreachable after Build marks cyclic graphs, kept as a
		// safety net for error-edge-only islands.
		return nil, &RunError{
			Code:    CodeIterationLimit,
			Message: "cannot compute execution levels: unresolved dependencies",
		}
	}

	maxLevel := 0
	for _, l := range level {
		if l > maxLevel {
			maxLevel = l
		}
	}

	levels := make([][]string, maxLevel+1)
	for _, id := range w.order {
		l := level[id]
		levels[l] = append(levels[l], id)
	}
	return levels, nil
}
