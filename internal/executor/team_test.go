package executor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAgent returns a canned output, or an error when fail is set.
type fakeAgent struct {
	id     string
	output map[string]any
	fail   error

	calls int
	seen  map[string]any // input of the last call
}

func (f *fakeAgent) ID() string { return f.id }

func (f *fakeAgent) Run(_ context.Context, _ string, input, _ map[string]any) (map[string]any, error) {
	f.calls++
	f.seen = input
	if f.fail != nil {
		return nil, f.fail
	}
	return f.output, nil
}

func TestNewTeamExecutorValidation(t *testing.T) {
	_, err := NewTeamExecutor("empty", StrategyParallel)
	assert.Error(t, err)

	_, err = NewTeamExecutor("bad", TeamStrategy("quorum"), &fakeAgent{id: "a"})
	assert.Error(t, err)

	team, err := NewTeamExecutor("ok", StrategyParallel, &fakeAgent{id: "a"})
	require.NoError(t, err)
	assert.Equal(t, "ok", team.Name())
}

func TestTeamParallel(t *testing.T) {
	a := &fakeAgent{id: "a", output: map[string]any{"from_a": 1}}
	b := &fakeAgent{id: "b", output: map[string]any{"from_b": 2}}
	team, err := NewTeamExecutor("pair", StrategyParallel, a, b)
	require.NoError(t, err)

	result, err := team.Execute(context.Background(), Task{Description: "work"}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Output["from_a"])
	assert.Equal(t, 2, result.Output["from_b"])
	assert.Equal(t, "parallel", result.Metadata["strategy"])
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}

func TestTeamParallelMemberFailure(t *testing.T) {
	boom := errors.New("member down")
	team, err := NewTeamExecutor("pair", StrategyParallel,
		&fakeAgent{id: "a", output: map[string]any{}},
		&fakeAgent{id: "b", fail: boom},
	)
	require.NoError(t, err)

	_, err = team.Execute(context.Background(), Task{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "member b")
}

func TestTeamSequentialAccumulates(t *testing.T) {
	first := &fakeAgent{id: "first", output: map[string]any{"step1": "done"}}
	second := &fakeAgent{id: "second", output: map[string]any{"step2": "done"}}
	team, err := NewTeamExecutor("chain", StrategySequential, first, second)
	require.NoError(t, err)

	result, err := team.Execute(context.Background(), Task{Input: map[string]any{"seed": true}}, nil)
	require.NoError(t, err)

	// The second member saw the original input plus the first's output.
	assert.Equal(t, true, second.seen["seed"])
	assert.Equal(t, "done", second.seen["step1"])

	assert.Equal(t, "done", result.Output["step1"])
	assert.Equal(t, "done", result.Output["step2"])
	assert.NotContains(t, result.Output, "seed", "original input is not echoed as output")
}

func TestTeamVote(t *testing.T) {
	t.Run("majority wins", func(t *testing.T) {
		team, err := NewTeamExecutor("jury", StrategyVote,
			&fakeAgent{id: "a", output: map[string]any{"verdict": "yes"}},
			&fakeAgent{id: "b", output: map[string]any{"verdict": "no"}},
			&fakeAgent{id: "c", output: map[string]any{"verdict": "yes"}},
		)
		require.NoError(t, err)

		result, err := team.Execute(context.Background(), Task{}, nil)
		require.NoError(t, err)
		assert.Equal(t, "yes", result.Output["verdict"])
		assert.Equal(t, 2, result.Metadata["votes"])
	})

	t.Run("tie resolves to earliest member", func(t *testing.T) {
		team, err := NewTeamExecutor("jury", StrategyVote,
			&fakeAgent{id: "a", output: map[string]any{"verdict": "no"}},
			&fakeAgent{id: "b", output: map[string]any{"verdict": "yes"}},
		)
		require.NoError(t, err)

		result, err := team.Execute(context.Background(), Task{}, nil)
		require.NoError(t, err)
		assert.Equal(t, "no", result.Output["verdict"])
	})
}

func TestAgentExecutor(t *testing.T) {
	agent := &fakeAgent{id: "solo", output: map[string]any{"answer": 42}}
	exec := NewAgentExecutor(agent)

	assert.Equal(t, "solo", exec.Name())

	result, err := exec.Execute(context.Background(), Task{Description: "compute"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 42, result.Output["answer"])
	assert.Equal(t, "solo", result.Metadata["agent_id"])

	agent.fail = errors.New("offline")
	_, err = exec.Execute(context.Background(), Task{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent solo")
}

func TestFuncAndEcho(t *testing.T) {
	fn := NewFunc("double", func(_ context.Context, task Task, _ map[string]any) (*Result, error) {
		n := task.Input["n"].(int)
		return &Result{Output: map[string]any{"n": n * 2}}, nil
	})
	result, err := fn.Execute(context.Background(), Task{Input: map[string]any{"n": 21}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 42, result.Output["n"])

	echo := Echo("e")
	result, err = echo.Execute(context.Background(), Task{Description: "hi", Input: map[string]any{"k": "v"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "hi", result.Output["echo"])
	assert.Equal(t, "v", result.Output["k"])
}
