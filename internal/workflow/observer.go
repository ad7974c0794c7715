package workflow

import (
	"log/slog"

	"github.com/engine-agi/engine-core/internal/executor"
	"github.com/engine-agi/engine-core/internal/types"
)

// RunObserver receives lifecycle notifications during a run. Run- and
// superstep-level calls come from the engine goroutine at the
// superstep barrier; VertexStarted is emitted by the worker goroutine
// driving the attempt, concurrently with other workers, so
// implementations must be safe for concurrent use. All calls must
// return quickly and must not block on the run itself.
type RunObserver interface {
	RunStarted(runID types.ID, w *Workflow)
	SuperstepStarted(runID types.ID, superstep int, frontier []string)
	VertexStarted(runID types.ID, vertexID string, attempt int)
	VertexSucceeded(runID types.ID, vertexID string, result *executor.Result)
	VertexFailed(runID types.ID, vertexID string, err error)
	VertexSkipped(runID types.ID, vertexID string)
	RunFinished(result *RunResult)
}

// NopObserver ignores every notification. Embed it to implement only
// the callbacks you care about.
type NopObserver struct{}

func (NopObserver) RunStarted(types.ID, *Workflow)                     {}
func (NopObserver) SuperstepStarted(types.ID, int, []string)           {}
func (NopObserver) VertexStarted(types.ID, string, int)                {}
func (NopObserver) VertexSucceeded(types.ID, string, *executor.Result) {}
func (NopObserver) VertexFailed(types.ID, string, error)               {}
func (NopObserver) VertexSkipped(types.ID, string)                     {}
func (NopObserver) RunFinished(*RunResult)                             {}

// LogObserver mirrors run lifecycle events to a structured logger.
type LogObserver struct {
	Logger *slog.Logger
}

// NewLogObserver creates an observer that logs at info level.
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{Logger: logger}
}

func (o *LogObserver) RunStarted(runID types.ID, w *Workflow) {
	o.Logger.Info("run started", "run_id", runID.Short(), "workflow", w.Name(), "vertices", len(w.VertexIDs()))
}

func (o *LogObserver) SuperstepStarted(runID types.ID, superstep int, frontier []string) {
	o.Logger.Info("superstep started", "run_id", runID.Short(), "superstep", superstep, "frontier", frontier)
}

func (o *LogObserver) VertexStarted(runID types.ID, vertexID string, attempt int) {
	o.Logger.Info("vertex started", "run_id", runID.Short(), "vertex", vertexID, "attempt", attempt)
}

func (o *LogObserver) VertexSucceeded(runID types.ID, vertexID string, _ *executor.Result) {
	o.Logger.Info("vertex succeeded", "run_id", runID.Short(), "vertex", vertexID)
}

func (o *LogObserver) VertexFailed(runID types.ID, vertexID string, err error) {
	o.Logger.Warn("vertex failed", "run_id", runID.Short(), "vertex", vertexID, "error", err)
}

func (o *LogObserver) VertexSkipped(runID types.ID, vertexID string) {
	o.Logger.Info("vertex skipped", "run_id", runID.Short(), "vertex", vertexID)
}

func (o *LogObserver) RunFinished(result *RunResult) {
	o.Logger.Info("run finished",
		"run_id", result.RunID.Short(),
		"status", result.Status,
		"supersteps", result.Supersteps,
		"duration", result.Duration,
	)
}

// MultiObserver fans notifications out to several observers in order.
type MultiObserver []RunObserver

func (m MultiObserver) RunStarted(runID types.ID, w *Workflow) {
	for _, o := range m {
		o.RunStarted(runID, w)
	}
}

func (m MultiObserver) SuperstepStarted(runID types.ID, superstep int, frontier []string) {
	for _, o := range m {
		o.SuperstepStarted(runID, superstep, frontier)
	}
}

func (m MultiObserver) VertexStarted(runID types.ID, vertexID string, attempt int) {
	for _, o := range m {
		o.VertexStarted(runID, vertexID, attempt)
	}
}

func (m MultiObserver) VertexSucceeded(runID types.ID, vertexID string, result *executor.Result) {
	for _, o := range m {
		o.VertexSucceeded(runID, vertexID, result)
	}
}

func (m MultiObserver) VertexFailed(runID types.ID, vertexID string, err error) {
	for _, o := range m {
		o.VertexFailed(runID, vertexID, err)
	}
}

func (m MultiObserver) VertexSkipped(runID types.ID, vertexID string) {
	for _, o := range m {
		o.VertexSkipped(runID, vertexID)
	}
}

func (m MultiObserver) RunFinished(result *RunResult) {
	for _, o := range m {
		o.RunFinished(result)
	}
}

// Callbacks adapts plain functions to RunObserver for callers that do
// not want to implement the full interface. Nil fields are skipped.
type Callbacks struct {
	NopObserver

	OnVertexStarted   func(vertexID string, attempt int)
	OnVertexSucceeded func(vertexID string, result *executor.Result)
	OnVertexFailed    func(vertexID string, err error)
	OnRunFinished     func(result *RunResult)
}

func (c *Callbacks) VertexStarted(_ types.ID, vertexID string, attempt int) {
	if c.OnVertexStarted != nil {
		c.OnVertexStarted(vertexID, attempt)
	}
}

func (c *Callbacks) VertexSucceeded(_ types.ID, vertexID string, result *executor.Result) {
	if c.OnVertexSucceeded != nil {
		c.OnVertexSucceeded(vertexID, result)
	}
}

func (c *Callbacks) VertexFailed(_ types.ID, vertexID string, err error) {
	if c.OnVertexFailed != nil {
		c.OnVertexFailed(vertexID, err)
	}
}

func (c *Callbacks) RunFinished(result *RunResult) {
	if c.OnRunFinished != nil {
		c.OnRunFinished(result)
	}
}
