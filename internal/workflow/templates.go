package workflow

import (
	"fmt"

	"github.com/engine-agi/engine-core/internal/executor"
)

// Templates for common workflow shapes. Each returns a ready builder
// so callers can add edges, options, or extra vertices before Build.

// Stage pairs an executor with its task for template construction.
type Stage struct {
	ID       string
	Executor executor.Executor
	Task     executor.Task
}

// Sequential builds a linear chain: each stage depends on the previous
// one through a plain edge.
func Sequential(name string, stages ...Stage) *Builder {
	b := NewBuilder(name)
	for i, s := range stages {
		b.AddVertex(s.ID, s.Executor, s.Task)
		if i > 0 {
			b.AddEdge(stages[i-1].ID, s.ID)
		}
	}
	return b
}

// DataPipeline builds an extract -> transform -> load chain with a
// shared error handler: every stage gets an error edge to the handler,
// so any terminal stage failure routes there instead of failing the
// run.
func DataPipeline(name string, extract, transform, load, onError Stage) *Builder {
	b := Sequential(name, extract, transform, load)
	b.AddVertex(onError.ID, onError.Executor, onError.Task)
	for _, s := range []Stage{extract, transform, load} {
		b.AddErrorEdge(s.ID, onError.ID)
	}
	return b
}

// FanOut builds one source feeding n parallel workers feeding one
// sink. Worker IDs are derived from the worker stage ID.
func FanOut(name string, source Stage, worker Stage, n int, sink Stage) *Builder {
	b := NewBuilder(name)
	b.AddVertex(source.ID, source.Executor, source.Task)
	b.AddVertex(sink.ID, sink.Executor, sink.Task)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%s-%d", worker.ID, i)
		b.AddVertex(id, worker.Executor, worker.Task)
		b.AddEdge(source.ID, id)
		b.AddEdge(id, sink.ID)
	}
	return b
}
