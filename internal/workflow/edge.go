package workflow

import "github.com/engine-agi/engine-core/internal/executor"

// EdgeKind distinguishes how an edge participates in scheduling.
type EdgeKind string

const (
	// EdgePlain is always traversed once the source succeeds.
	EdgePlain EdgeKind = "plain"

	// EdgeConditional is traversed only if its predicate holds over
	// the source vertex's result. Multiple conditional edges from the
	// same vertex are independent: zero, one, or many may fire.
	EdgeConditional EdgeKind = "conditional"

	// EdgeError is traversed only when the source vertex terminates in
	// failure after exhausting its retries. The presence of at least
	// one error edge turns that failure from fatal into a handled
	// branch.
	EdgeError EdgeKind = "error"
)

// Predicate decides whether a conditional edge fires, given the source
// vertex's result. Predicates are evaluated at most once per source
// completion, in scheduling order, and should be pure.
type Predicate func(result *executor.Result) bool

// Edge is a directed connection between two vertices.
type Edge struct {
	// From is the source vertex ID.
	From string `json:"from"`
	// To is the destination vertex ID.
	To string `json:"to"`
	// Kind selects plain, conditional, or error semantics.
	Kind EdgeKind `json:"kind"`
	// Predicate gates traversal for conditional edges. Nil for plain
	// and error edges.
	Predicate Predicate `json:"-"`
	// Condition is the source expression the predicate was compiled
	// from, when the edge came from a YAML definition. Informational.
	Condition string `json:"condition,omitempty"`
	// Metadata carries additional custom metadata for the edge.
	Metadata map[string]any `json:"metadata,omitempty"`

	// loopback marks edges classified as DFS back edges at build
	// time. A loop-back edge closes a cycle; it is ignored when
	// deciding a vertex's first dispatch so loops can start, and it
	// re-arms its target on later firings.
	loopback bool
}

// Loopback reports whether the edge closes a cycle.
func (e *Edge) Loopback() bool { return e.loopback }
