package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engine-agi/engine-core/internal/executor"
)

func TestSequentialTemplate(t *testing.T) {
	wf, err := Sequential("seq",
		Stage{ID: "one", Executor: echo("one")},
		Stage{ID: "two", Executor: echo("two")},
		Stage{ID: "three", Executor: echo("three")},
	).Build()
	require.NoError(t, err)

	levels, err := wf.ExecutionLevels()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"one"}, {"two"}, {"three"}}, levels)
}

func TestDataPipelineTemplate(t *testing.T) {
	boom := executor.NewFunc("boom", func(context.Context, executor.Task, map[string]any) (*executor.Result, error) {
		return nil, errors.New("transform blew up")
	})

	wf, err := DataPipeline("etl",
		Stage{ID: "extract", Executor: echo("extract")},
		Stage{ID: "transform", Executor: boom},
		Stage{ID: "load", Executor: echo("load")},
		Stage{ID: "on-error", Executor: echo("on-error")},
	).Build()
	require.NoError(t, err)

	result, err := newTestEngine().Execute(context.Background(), wf, nil)
	require.NoError(t, err, "pipeline failures route to the handler")

	assert.Equal(t, RunStatusCompleted, result.Status)
	assert.Equal(t, VertexStatusFailed, result.Vertices["transform"].Status)
	assert.Equal(t, VertexStatusSucceeded, result.Vertices["on-error"].Status)
	assert.Equal(t, VertexStatusSkipped, result.Vertices["load"].Status)
}

func TestFanOutTemplate(t *testing.T) {
	wf, err := FanOut("scatter",
		Stage{ID: "source", Executor: echo("source")},
		Stage{ID: "worker", Executor: echo("worker")}, 3,
		Stage{ID: "sink", Executor: echo("sink")},
	).Build()
	require.NoError(t, err)

	stats := wf.Stats()
	assert.Equal(t, 5, stats.VertexCount)
	assert.Equal(t, 6, stats.EdgeCount)

	result, err := newTestEngine().Execute(context.Background(), wf, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Supersteps)
	assert.Equal(t, VertexStatusSucceeded, result.Vertices["sink"].Status)
}
