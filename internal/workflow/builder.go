package workflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/engine-agi/engine-core/internal/executor"
	"github.com/engine-agi/engine-core/internal/types"
)

// Builder assembles a Workflow through a fluent interface. Structural
// defects are accumulated rather than returned per call, so a whole
// graph can be declared in one chain and every problem reported by a
// single Build. Builders are single-use and not safe for concurrent
// use.
type Builder struct {
	name        string
	description string

	vertices map[string]*Vertex
	order    []string
	edges    []*Edge

	opts RunOptions

	errs []error
}

// NewBuilder creates a workflow builder with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{
		name:     name,
		vertices: make(map[string]*Vertex),
		opts: RunOptions{
			MaxParallel:   DefaultMaxParallel,
			MaxSupersteps: DefaultMaxSupersteps,
		},
	}
}

// Default run bounds applied when the builder is not configured
// otherwise.
const (
	DefaultMaxParallel   = 8
	DefaultMaxSupersteps = 100
)

// WithDescription sets the workflow description.
func (b *Builder) WithDescription(desc string) *Builder {
	b.description = desc
	return b
}

// VertexOption configures a vertex at add time.
type VertexOption func(*Vertex)

// WithTimeout bounds each attempt of the vertex.
func WithTimeout(d time.Duration) VertexOption {
	return func(v *Vertex) { v.Timeout = d }
}

// WithRetry sets the vertex retry policy.
func WithRetry(p RetryPolicy) VertexOption {
	return func(v *Vertex) { v.Retry = &p }
}

// WithVertexMetadata attaches metadata to the vertex.
func WithVertexMetadata(md map[string]any) VertexOption {
	return func(v *Vertex) { v.Metadata = md }
}

// AddVertex adds a vertex executing the given task on the given
// executor. IDs must be unique within the workflow.
func (b *Builder) AddVertex(id string, exec executor.Executor, task executor.Task, opts ...VertexOption) *Builder {
	if id == "" {
		b.errs = append(b.errs, &InvalidVertexError{ID: id, Reason: "empty id"})
		return b
	}
	if exec == nil {
		b.errs = append(b.errs, &InvalidVertexError{ID: id, Reason: "nil executor"})
		return b
	}
	if _, ok := b.vertices[id]; ok {
		b.errs = append(b.errs, &DuplicateVertexError{ID: id})
		return b
	}

	v := &Vertex{
		ID:       id,
		Executor: exec,
		Task:     task,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.Retry != nil && v.Retry.MaxAttempts < 1 {
		b.errs = append(b.errs, &InvalidVertexError{ID: id, Reason: "retry policy requires at least one attempt"})
		return b
	}

	b.vertices[id] = v
	b.order = append(b.order, id)
	return b
}

// AddEdge adds a plain dependency edge from -> to. The target waits
// for every plain predecessor to succeed.
func (b *Builder) AddEdge(from, to string) *Builder {
	return b.addEdge(&Edge{From: from, To: to, Kind: EdgePlain})
}

// AddConditionalEdge adds an edge that fires only when the predicate
// accepts the source's result. Targets whose incoming edges are all
// conditional run when any one of them fires.
func (b *Builder) AddConditionalEdge(from, to string, pred Predicate) *Builder {
	if pred == nil {
		b.errs = append(b.errs, &InvalidEdgeError{From: from, To: to, Reason: "nil predicate"})
		return b
	}
	return b.addEdge(&Edge{From: from, To: to, Kind: EdgeConditional, Predicate: pred})
}

// AddConditionalEdgeExpr is AddConditionalEdge with the predicate
// compiled from a condition expression, e.g.
// `output.score >= 0.8 && status == "succeeded"`.
func (b *Builder) AddConditionalEdgeExpr(from, to, expr string) *Builder {
	pred, err := CompileCondition(expr)
	if err != nil {
		b.errs = append(b.errs, &InvalidEdgeError{From: from, To: to, Reason: fmt.Sprintf("condition %q: %v", expr, err)})
		return b
	}
	return b.addEdge(&Edge{From: from, To: to, Kind: EdgeConditional, Predicate: pred, Condition: expr})
}

// AddErrorEdge adds a recovery edge that fires when the source fails
// terminally, after retries are exhausted. A fired error edge absorbs
// the failure's fatality; the run can still complete.
func (b *Builder) AddErrorEdge(from, to string) *Builder {
	return b.addEdge(&Edge{From: from, To: to, Kind: EdgeError})
}

func (b *Builder) addEdge(e *Edge) *Builder {
	if e.From == "" || e.To == "" {
		b.errs = append(b.errs, &InvalidEdgeError{From: e.From, To: e.To, Reason: "empty endpoint"})
		return b
	}
	b.edges = append(b.edges, e)
	return b
}

// WithMaxParallel bounds how many vertices of one superstep run
// concurrently.
func (b *Builder) WithMaxParallel(n int) *Builder {
	if n < 1 {
		b.errs = append(b.errs, fmt.Errorf("max parallel must be positive, got %d", n))
		return b
	}
	b.opts.MaxParallel = n
	return b
}

// WithMaxSupersteps bounds the run's superstep counter.
func (b *Builder) WithMaxSupersteps(n int) *Builder {
	if n < 1 {
		b.errs = append(b.errs, fmt.Errorf("max supersteps must be positive, got %d", n))
		return b
	}
	b.opts.MaxSupersteps = n
	return b
}

// WithDefaultTimeout sets the per-attempt timeout for vertices without
// their own.
func (b *Builder) WithDefaultTimeout(d time.Duration) *Builder {
	if d < 0 {
		b.errs = append(b.errs, fmt.Errorf("default timeout must not be negative, got %s", d))
		return b
	}
	b.opts.DefaultTimeout = d
	return b
}

// WithDefaultRetry sets the retry policy for vertices without their
// own.
func (b *Builder) WithDefaultRetry(p RetryPolicy) *Builder {
	if p.MaxAttempts < 1 {
		b.errs = append(b.errs, fmt.Errorf("default retry policy requires at least one attempt, got %d", p.MaxAttempts))
		return b
	}
	b.opts.DefaultRetry = &p
	return b
}

// Build validates the accumulated graph and returns the immutable
// Workflow. All accumulated and validation errors are joined; a
// non-nil error means no workflow was produced.
func (b *Builder) Build() (*Workflow, error) {
	errs := make([]error, len(b.errs))
	copy(errs, b.errs)

	w := &Workflow{
		id:          types.NewID(),
		name:        b.name,
		description: b.description,
		vertices:    b.vertices,
		order:       b.order,
		edges:       b.edges,
		outgoing:    make(map[string][]*Edge, len(b.vertices)),
		incoming:    make(map[string][]*Edge, len(b.vertices)),
		opts:        b.opts,
		createdAt:   time.Now(),
	}

	for _, e := range b.edges {
		if _, ok := b.vertices[e.From]; !ok {
			errs = append(errs, &UnknownVertexError{ID: e.From, Edge: "from"})
			continue
		}
		if _, ok := b.vertices[e.To]; !ok {
			errs = append(errs, &UnknownVertexError{ID: e.To, Edge: "to"})
			continue
		}
		w.outgoing[e.From] = append(w.outgoing[e.From], e)
		w.incoming[e.To] = append(w.incoming[e.To], e)
	}

	if len(errs) == 0 {
		errs = append(errs, validate(w)...)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return w, nil
}
