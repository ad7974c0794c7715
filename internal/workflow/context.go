package workflow

import (
	"maps"
	"sync"
)

// ExecutionContext is the shared key-value state of a run. Vertices
// read a snapshot taken at their superstep's start and write through
// the barrier, so writes from one superstep become visible only in the
// next. Each vertex's output lands under its own ID; vertices can also
// publish into the shared "scratch" namespace, where later writes win
// in barrier application order.
type ExecutionContext struct {
	mu     sync.RWMutex
	values map[string]any
}

// ScratchKey is the shared namespace merged across vertices, as
// opposed to per-vertex output keys.
const ScratchKey = "scratch"

// NewExecutionContext creates an execution context seeded with the
// given initial values. The seed map is copied.
func NewExecutionContext(initial map[string]any) *ExecutionContext {
	values := make(map[string]any, len(initial))
	maps.Copy(values, initial)
	return &ExecutionContext{values: values}
}

// Snapshot returns a shallow copy of the current values. Vertices of
// one superstep all receive the same snapshot.
func (c *ExecutionContext) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]any, len(c.values))
	maps.Copy(out, c.values)
	return out
}

// Get returns the value at key.
func (c *ExecutionContext) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Set stores a value at key.
func (c *ExecutionContext) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// ApplyResult publishes a vertex's output: the whole output map under
// the vertex's ID, and any "scratch" sub-map merged into the shared
// scratch namespace. Called at the superstep barrier, once per
// completed vertex, in dispatch order.
func (c *ExecutionContext) ApplyResult(vertexID string, output map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.values[vertexID] = output

	shared, ok := output[ScratchKey].(map[string]any)
	if !ok || len(shared) == 0 {
		return
	}
	scratch, ok := c.values[ScratchKey].(map[string]any)
	if !ok {
		scratch = make(map[string]any, len(shared))
	} else {
		// Copy-on-write so previously handed-out snapshots stay
		// stable.
		scratch = maps.Clone(scratch)
	}
	maps.Copy(scratch, shared)
	c.values[ScratchKey] = scratch
}
