package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/engine-agi/engine-core/internal/executor"
	"github.com/engine-agi/engine-core/internal/types"
)

// Engine executes workflows in barrier-synchronized supersteps. Each
// superstep dispatches every ready vertex against one context
// snapshot, waits for all of them, then applies their writes in
// dispatch order. Writes of one superstep are therefore never visible
// to its siblings, only to the next superstep.
//
// An Engine is stateless between runs and safe for concurrent use.
type Engine struct {
	logger      *slog.Logger
	tracer      trace.Tracer
	observer    RunObserver
	maxParallel int // overrides the workflow's bound when positive
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine's structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTracer sets the engine's trace.Tracer.
func WithTracer(tracer trace.Tracer) EngineOption {
	return func(e *Engine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// WithObserver attaches a run observer.
func WithObserver(obs RunObserver) EngineOption {
	return func(e *Engine) {
		if obs != nil {
			e.observer = obs
		}
	}
}

// WithMaxParallel overrides the per-superstep concurrency bound of
// every workflow this engine runs.
func WithMaxParallel(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxParallel = n
		}
	}
}

// NewEngine creates a workflow engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger:   slog.Default(),
		tracer:   otel.Tracer("engine-core/workflow"),
		observer: NopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// vertexOutcome carries one dispatched vertex's terminal attempt back
// to the barrier.
type vertexOutcome struct {
	id     string
	result *executor.Result
	err    error
}

// Execute runs the workflow to a terminal state and returns the run
// result. The result is non-nil even on error; the error mirrors
// result.Err for failed and cancelled runs.
func (e *Engine) Execute(ctx context.Context, w *Workflow, initial map[string]any) (*RunResult, error) {
	runID := types.NewID()
	started := time.Now()

	ctx, span := e.tracer.Start(ctx, "workflow.run", trace.WithAttributes(
		attribute.String("workflow.id", w.ID().String()),
		attribute.String("workflow.name", w.Name()),
		attribute.String("run.id", runID.String()),
	))
	defer span.End()

	logger := e.logger.With("run_id", runID, "workflow", w.Name())
	logger.Info("run started", "vertices", len(w.order), "entry_points", w.entryPoints)
	e.observer.RunStarted(runID, w)

	state := newRunState(w)
	ectx := NewExecutionContext(initial)

	opts := w.opts
	if e.maxParallel > 0 {
		opts.MaxParallel = e.maxParallel
	}

	status := RunStatusCompleted
	var runErr error
	supersteps := 0
	skipNotified := make(map[string]bool)

	for {
		if err := ctx.Err(); err != nil {
			status = RunStatusCancelled
			runErr = &RunError{Code: CodeCancelled, Message: "run cancelled", Cause: err}
			break
		}

		frontier := state.readyVertices()
		if len(frontier) == 0 {
			break
		}

		if supersteps >= opts.MaxSupersteps {
			status = RunStatusFailed
			runErr = &RunError{
				Code:    CodeIterationLimit,
				Message: fmt.Sprintf("exceeded %d supersteps with vertices still ready", opts.MaxSupersteps),
			}
			break
		}
		supersteps++

		logger.Debug("superstep started", "superstep", supersteps, "frontier", frontier)
		e.observer.SuperstepStarted(runID, supersteps, frontier)

		snapshot := ectx.Snapshot()
		outcomes := e.dispatch(ctx, w, state, frontier, snapshot, supersteps, opts, runID, logger)

		// Barrier: apply completions sequentially in dispatch order.
		// Sibling writes stay invisible to each other because every
		// sibling already ran against the pre-barrier snapshot.
		fatal := false
		var fatalErr error
		for _, out := range outcomes {
			if out.err == nil {
				state.markSucceeded(out.id, out.result)
				ectx.ApplyResult(out.id, out.result.Output)
				e.observer.VertexSucceeded(runID, out.id, out.result)
				continue
			}

			logger.Warn("vertex failed", "vertex", out.id, "error", out.err)
			e.observer.VertexFailed(runID, out.id, out.err)
			if state.markFailed(out.id, out.err) && !fatal {
				fatal = true
				fatalErr = out.err
			}
		}

		state.cascadeSkips()
		for _, id := range w.order {
			if state.vertices[id].Status == VertexStatusSkipped && !skipNotified[id] {
				skipNotified[id] = true
				logger.Debug("vertex skipped", "vertex", id)
				e.observer.VertexSkipped(runID, id)
			}
		}

		if fatal {
			status = RunStatusFailed
			code := CodeFatalVertex
			var terr *TimeoutError
			if errors.As(fatalErr, &terr) {
				code = CodeTimeout
			}
			runErr = &RunError{Code: code, Message: "vertex failed with no error edge", Cause: fatalErr}
			break
		}
	}

	// Failures caused by cancellation are reported as cancelled, not
	// failed: in-flight attempts see a dead context and error out, but
	// the run's terminal status reflects the cancellation.
	if ctx.Err() != nil && status != RunStatusCancelled {
		status = RunStatusCancelled
		runErr = &RunError{Code: CodeCancelled, Message: "run cancelled", Cause: ctx.Err()}
	}

	if status == RunStatusCompleted && state.unresolved() {
		logger.Warn("run starved with vertices unresolved", "counts", state.counts())
	}

	result := &RunResult{
		RunID:        runID,
		WorkflowID:   w.id,
		WorkflowName: w.name,
		Status:       status,
		Err:          runErr,
		Context:      ectx.Snapshot(),
		Vertices:     state.snapshot(),
		Supersteps:   supersteps,
		StartedAt:    started,
		Duration:     time.Since(started),
	}

	if runErr != nil {
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.SetAttributes(
		attribute.String("run.status", string(status)),
		attribute.Int("run.supersteps", supersteps),
	)

	logger.Info("run finished", "status", status, "supersteps", supersteps, "duration", result.Duration)
	e.observer.RunFinished(result)

	return result, runErr
}

// dispatch runs one superstep's frontier against a single context
// snapshot, bounded by MaxParallel, and returns outcomes in frontier
// order. Excess ready vertices queue on the semaphore in that same
// order.
func (e *Engine) dispatch(ctx context.Context, w *Workflow, state *runState, frontier []string, snapshot map[string]any, superstep int, opts RunOptions, runID types.ID, logger *slog.Logger) []vertexOutcome {
	outcomes := make([]vertexOutcome, len(frontier))

	for _, id := range frontier {
		state.markReady(id)
	}

	sem := make(chan struct{}, opts.MaxParallel)
	var wg sync.WaitGroup

	for i, id := range frontier {
		sem <- struct{}{}
		state.markRunning(id, superstep)

		wg.Add(1)
		go func(i int, v *Vertex) {
			defer wg.Done()
			defer func() { <-sem }()

			result, err := e.runVertex(ctx, v, state, snapshot, superstep, opts, runID, logger)
			outcomes[i] = vertexOutcome{id: v.ID, result: result, err: err}
		}(i, w.vertices[id])
	}

	wg.Wait()
	return outcomes
}

// runVertex drives the attempt loop of one vertex: per-attempt
// timeout, backoff between attempts, retries exhausted means terminal
// failure. A timed-out attempt spends the retry budget like any other
// failure.
func (e *Engine) runVertex(ctx context.Context, v *Vertex, state *runState, snapshot map[string]any, superstep int, opts RunOptions, runID types.ID, logger *slog.Logger) (*executor.Result, error) {
	ctx, span := e.tracer.Start(ctx, "workflow.vertex", trace.WithAttributes(
		attribute.String("vertex.id", v.ID),
		attribute.String("vertex.executor", v.Executor.Name()),
		attribute.Int("vertex.superstep", superstep),
	))
	defer span.End()

	retry := v.Retry
	if retry == nil {
		retry = opts.DefaultRetry
	}
	maxAttempts := 1
	if retry != nil {
		maxAttempts = retry.MaxAttempts
	}

	timeout := v.Timeout
	if timeout == 0 {
		timeout = opts.DefaultTimeout
	}

	// The engine goroutine only reads this record again after the
	// barrier, so writing Attempts from the worker is safe.
	vs := state.vertices[v.ID]

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		vs.Attempts = attempt
		e.observer.VertexStarted(runID, v.ID, attempt)
		logger.Debug("vertex attempt", "vertex", v.ID, "attempt", attempt, "superstep", superstep)

		result, err := e.attempt(ctx, v, snapshot, timeout, attempt)
		if err == nil {
			span.SetAttributes(attribute.Int("vertex.attempts", attempt))
			return result, nil
		}
		lastErr = err

		if attempt < maxAttempts {
			delay := retry.RetryDelay(attempt)
			logger.Debug("vertex retrying", "vertex", v.ID, "attempt", attempt, "delay", delay, "error", err)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				lastErr = ctx.Err()
				attempt = maxAttempts
			}
		}
	}

	verr := &VertexError{VertexID: v.ID, Attempt: vs.Attempts, Superstep: superstep, Cause: lastErr}
	span.RecordError(verr)
	span.SetStatus(codes.Error, verr.Error())
	return nil, verr
}

// RunHandle tracks an asynchronous run.
type RunHandle struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	status RunStatus
	result *RunResult
	err    error
}

// ExecuteAsync starts the run on its own goroutine and returns a
// handle for waiting and cancellation.
func (e *Engine) ExecuteAsync(ctx context.Context, w *Workflow, initial map[string]any) *RunHandle {
	ctx, cancel := context.WithCancel(ctx)
	h := &RunHandle{cancel: cancel, done: make(chan struct{}), status: RunStatusInitializing}

	go func() {
		defer close(h.done)
		h.mu.Lock()
		h.status = RunStatusRunning
		h.mu.Unlock()

		result, err := e.Execute(ctx, w, initial)
		h.mu.Lock()
		h.status = result.Status
		h.result, h.err = result, err
		h.mu.Unlock()
	}()

	return h
}

// Status reports the run's current phase: initializing until the run
// goroutine starts, running while supersteps execute, then the
// terminal status.
func (h *RunHandle) Status() RunStatus {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// Cancel requests cancellation. In-flight attempts see their context
// cancelled; the run finishes with status cancelled.
func (h *RunHandle) Cancel() { h.cancel() }

// Done returns a channel closed when the run reaches a terminal
// state.
func (h *RunHandle) Done() <-chan struct{} { return h.done }

// Wait blocks until the run finishes and returns its result.
func (h *RunHandle) Wait() (*RunResult, error) {
	<-h.done
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result, h.err
}

// attempt executes one bounded attempt.
func (e *Engine) attempt(ctx context.Context, v *Vertex, snapshot map[string]any, timeout time.Duration, attempt int) (*executor.Result, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := v.Executor.Execute(ctx, v.Task, snapshot)
	if err != nil {
		if timeout > 0 && ctx.Err() == context.DeadlineExceeded {
			return nil, &TimeoutError{VertexID: v.ID, Attempt: attempt, Timeout: timeout}
		}
		return nil, err
	}
	if result == nil {
		result = &executor.Result{}
	}
	return result, nil
}
