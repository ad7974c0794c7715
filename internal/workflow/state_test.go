package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engine-agi/engine-core/internal/executor"
)

func secs(n int) time.Duration { return time.Duration(n) * time.Second }

func buildGraph(t *testing.T, b *Builder) *Workflow {
	t.Helper()
	wf, err := b.Build()
	require.NoError(t, err)
	return wf
}

func TestReadyPlainJoin(t *testing.T) {
	wf := buildGraph(t, NewBuilder("join").
		AddVertex("a", echo("a"), executor.Task{}).
		AddVertex("b", echo("b"), executor.Task{}).
		AddVertex("join", echo("join"), executor.Task{}).
		AddEdge("a", "join").
		AddEdge("b", "join"))

	s := newRunState(wf)
	assert.Equal(t, []string{"a", "b"}, s.readyVertices())

	s.markReady("a")
	assert.Equal(t, []string{"b"}, s.readyVertices(), "a selected vertex leaves the frontier")

	s.markRunning("a", 1)
	s.markRunning("b", 1)
	s.markSucceeded("a", &executor.Result{})
	assert.False(t, s.ready("join"), "AND join needs every plain edge")

	s.markSucceeded("b", &executor.Result{})
	assert.Equal(t, []string{"join"}, s.readyVertices())
}

func TestReadyConditionalOr(t *testing.T) {
	always := func(*executor.Result) bool { return true }
	never := func(*executor.Result) bool { return false }

	wf := buildGraph(t, NewBuilder("or").
		AddVertex("a", echo("a"), executor.Task{}).
		AddVertex("b", echo("b"), executor.Task{}).
		AddVertex("target", echo("target"), executor.Task{}).
		AddConditionalEdge("a", "target", always).
		AddConditionalEdge("b", "target", never))

	s := newRunState(wf)
	s.markRunning("a", 1)
	s.markSucceeded("a", &executor.Result{})

	assert.True(t, s.ready("target"), "one fired conditional suffices")
}

func TestReadySkipCascade(t *testing.T) {
	never := func(*executor.Result) bool { return false }

	wf := buildGraph(t, NewBuilder("cascade").
		AddVertex("a", echo("a"), executor.Task{}).
		AddVertex("b", echo("b"), executor.Task{}).
		AddVertex("c", echo("c"), executor.Task{}).
		AddConditionalEdge("a", "b", never).
		AddEdge("b", "c"))

	s := newRunState(wf)
	s.markRunning("a", 1)
	s.markSucceeded("a", &executor.Result{})
	s.cascadeSkips()

	assert.Equal(t, VertexStatusSkipped, s.vertices["b"].Status)
	assert.Equal(t, VertexStatusSkipped, s.vertices["c"].Status, "skip cascades through dead edges")
	assert.Empty(t, s.readyVertices())
	assert.False(t, s.unresolved())
}

func TestReadyLoopRearm(t *testing.T) {
	again := func(r *executor.Result) bool { return r.Output["again"] == true }

	wf := buildGraph(t, NewBuilder("loop").
		AddVertex("work", echo("work"), executor.Task{}).
		AddVertex("check", echo("check"), executor.Task{}).
		AddEdge("work", "check").
		AddConditionalEdge("check", "work", again))

	s := newRunState(wf)

	// First dispatch ignores the loop-back edge.
	assert.Equal(t, []string{"work"}, s.readyVertices())

	s.markRunning("work", 1)
	s.markSucceeded("work", &executor.Result{})
	assert.Equal(t, []string{"check"}, s.readyVertices())

	s.markRunning("check", 2)
	s.markSucceeded("check", &executor.Result{Output: map[string]any{"again": true}})
	assert.Equal(t, []string{"work"}, s.readyVertices(), "fired loop-back re-arms the target")

	// Second iteration where the loop-back goes dead.
	s.markRunning("work", 3)
	s.markSucceeded("work", &executor.Result{})
	s.markRunning("check", 4)
	s.markSucceeded("check", &executor.Result{Output: map[string]any{"again": false}})
	assert.Empty(t, s.readyVertices(), "dead loop-back leaves nothing to run")
}

func TestCompletedVertexNotRearmedBySibling(t *testing.T) {
	always := func(*executor.Result) bool { return true }

	wf := buildGraph(t, NewBuilder("fan-in").
		AddVertex("a", echo("a"), executor.Task{}).
		AddVertex("b", echo("b"), executor.Task{}).
		AddVertex("target", echo("target"), executor.Task{}).
		AddConditionalEdge("a", "target", always).
		AddConditionalEdge("b", "target", always))

	s := newRunState(wf)
	s.markRunning("a", 1)
	s.markSucceeded("a", &executor.Result{})
	assert.True(t, s.ready("target"), "one fired conditional admits the OR target")

	s.markRunning("target", 2)
	s.markSucceeded("target", &executor.Result{})

	// b's first-run firing arrives after target completed; in an
	// acyclic graph that must not schedule target again.
	s.markRunning("b", 2)
	s.markSucceeded("b", &executor.Result{})
	assert.False(t, s.ready("target"))
	assert.Empty(t, s.readyVertices())
}

func TestMarkFailedFatality(t *testing.T) {
	wf := buildGraph(t, NewBuilder("w").
		AddVertex("handled", echo("handled"), executor.Task{}).
		AddVertex("cleanup", echo("cleanup"), executor.Task{}).
		AddVertex("bare", echo("bare"), executor.Task{}).
		AddErrorEdge("handled", "cleanup"))

	s := newRunState(wf)

	s.markRunning("handled", 1)
	fatal := s.markFailed("handled", errors.New("boom"))
	assert.False(t, fatal, "an error edge absorbs the failure")
	assert.True(t, s.ready("cleanup"))

	s.markRunning("bare", 1)
	fatal = s.markFailed("bare", errors.New("boom"))
	assert.True(t, fatal)
}

func TestRetryPolicyDelay(t *testing.T) {
	tests := []struct {
		name    string
		policy  RetryPolicy
		attempt int
		want    string
	}{
		{"constant", RetryPolicy{Backoff: BackoffConstant, Delay: secs(2)}, 3, "2s"},
		{"linear first", RetryPolicy{Backoff: BackoffLinear, Delay: secs(2)}, 1, "2s"},
		{"linear third", RetryPolicy{Backoff: BackoffLinear, Delay: secs(2)}, 3, "6s"},
		{"exponential first", RetryPolicy{Backoff: BackoffExponential, Delay: secs(1)}, 1, "1s"},
		{"exponential third", RetryPolicy{Backoff: BackoffExponential, Delay: secs(1)}, 3, "4s"},
		{"exponential capped", RetryPolicy{Backoff: BackoffExponential, Delay: secs(1), MaxDelay: secs(3)}, 4, "3s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.policy.RetryDelay(tt.attempt).String())
		})
	}
}
