// Package executor defines the uniform execution capability the workflow
// engine delegates to. An Executor may be backed by a single agent, a
// coordinated team of agents, or a plain function; the engine never
// distinguishes between them. Whatever coordination happens inside an
// adapter must be fully resolved to exactly one Result or one error
// before Execute returns.
package executor

import (
	"context"
	"fmt"
)

// Task is the opaque description of the work a vertex delegates to its
// executor. The engine passes it through untouched.
type Task struct {
	// Description is a human-readable instruction for the executor.
	Description string `json:"description"`

	// Input carries structured parameters for the task.
	Input map[string]any `json:"input,omitempty"`

	// Metadata carries additional custom metadata for the task.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Result is the single outcome of one executor invocation.
type Result struct {
	// Output is the structured result payload. It is what conditional
	// edge predicates evaluate against and what the engine writes into
	// the shared execution context under the vertex ID.
	Output map[string]any `json:"output,omitempty"`

	// Metadata carries executor-specific details (model used, votes
	// cast, member outputs) that do not participate in data flow.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Executor is the uniform capability the engine depends on. Execute
// receives the task and a read-only snapshot of the shared execution
// context as it was at the start of the current superstep.
//
// Implementations must be safe to invoke concurrently with other
// executors. They are not required to be reentrant for the same vertex:
// a vertex's own attempts are always sequential.
type Executor interface {
	// Name identifies the executor for logging and registry lookup.
	Name() string

	// Execute performs the task and returns exactly one result or one
	// error. Implementations must honor ctx cancellation and deadlines.
	Execute(ctx context.Context, task Task, snapshot map[string]any) (*Result, error)
}

// Func adapts a plain function into an Executor. It is the lightest
// adapter and the one tests and workflow templates reach for.
type Func struct {
	name string
	fn   func(ctx context.Context, task Task, snapshot map[string]any) (*Result, error)
}

// NewFunc wraps fn as an Executor with the given name.
func NewFunc(name string, fn func(ctx context.Context, task Task, snapshot map[string]any) (*Result, error)) *Func {
	return &Func{name: name, fn: fn}
}

// Name returns the executor name.
func (f *Func) Name() string { return f.name }

// Execute invokes the wrapped function.
func (f *Func) Execute(ctx context.Context, task Task, snapshot map[string]any) (*Result, error) {
	if f.fn == nil {
		return nil, fmt.Errorf("executor %q has no function bound", f.name)
	}
	return f.fn(ctx, task, snapshot)
}

// Echo returns an executor that succeeds immediately and echoes the
// task input as its output. Useful for dry-running a workflow graph
// without real agents behind it.
func Echo(name string) *Func {
	return NewFunc(name, func(_ context.Context, task Task, _ map[string]any) (*Result, error) {
		out := map[string]any{"echo": task.Description}
		for k, v := range task.Input {
			out[k] = v
		}
		return &Result{Output: out}, nil
	})
}
