package workflow

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engine-agi/engine-core/internal/executor"
)

const pipelineYAML = `
name: triage
description: score then route
max_parallel: 4
max_supersteps: 20
default_timeout: 30s
vertices:
  - id: score
    executor: scorer
    task:
      description: score the input
      input:
        threshold: 0.8
  - id: escalate
    executor: notifier
    retry:
      max_attempts: 3
      backoff: exponential
      delay: 100ms
      max_delay: 2s
  - id: archive
    executor: archiver
edges:
  - from: score
    to: escalate
    kind: conditional
    condition: output.score >= 0.8
  - from: score
    to: archive
    kind: conditional
    condition: output.score < 0.8
`

type testRegistry map[string]executor.Executor

func (r testRegistry) Lookup(name string) (executor.Executor, bool) {
	e, ok := r[name]
	return e, ok
}

func TestParseDefinition(t *testing.T) {
	def, err := ParseDefinition(strings.NewReader(pipelineYAML))
	require.NoError(t, err)

	assert.Equal(t, "triage", def.Name)
	assert.Equal(t, 4, def.MaxParallel)
	assert.Len(t, def.Vertices, 3)
	assert.Len(t, def.Edges, 2)
	require.NotNil(t, def.Vertices[1].Retry)
	assert.Equal(t, 3, def.Vertices[1].Retry.MaxAttempts)
}

func TestParseDefinitionErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "missing name",
			yaml: "vertices:\n  - id: a\n    executor: x\n",
		},
		{
			name: "no vertices",
			yaml: "name: w\n",
		},
		{
			name: "vertex missing executor",
			yaml: "name: w\nvertices:\n  - id: a\n",
		},
		{
			name: "conditional edge without condition",
			yaml: "name: w\nvertices:\n  - id: a\n    executor: x\n  - id: b\n    executor: x\nedges:\n  - from: a\n    to: b\n    kind: conditional\n",
		},
		{
			name: "unknown field",
			yaml: "name: w\nbogus: true\nvertices:\n  - id: a\n    executor: x\n",
		},
		{
			name: "bad edge kind",
			yaml: "name: w\nvertices:\n  - id: a\n    executor: x\nedges:\n  - from: a\n    to: a\n    kind: sometimes\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDefinition(strings.NewReader(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestBuildWorkflowFromDefinition(t *testing.T) {
	def, err := ParseDefinition(strings.NewReader(pipelineYAML))
	require.NoError(t, err)

	scorer := executor.NewFunc("scorer", func(context.Context, executor.Task, map[string]any) (*executor.Result, error) {
		return &executor.Result{Output: map[string]any{"score": 0.9}}, nil
	})
	registry := testRegistry{
		"scorer":   scorer,
		"notifier": executor.Echo("notifier"),
		"archiver": executor.Echo("archiver"),
	}

	wf, err := BuildWorkflow(def, registry)
	require.NoError(t, err)

	assert.Equal(t, "triage", wf.Name())
	assert.Equal(t, 4, wf.Options().MaxParallel)
	assert.Equal(t, 20, wf.Options().MaxSupersteps)
	assert.Equal(t, []string{"score"}, wf.EntryPoints())

	retry := wf.Vertex("escalate").Retry
	require.NotNil(t, retry)
	assert.Equal(t, BackoffExponential, retry.Backoff)

	result, err := newTestEngine().Execute(context.Background(), wf, nil)
	require.NoError(t, err)
	assert.Equal(t, VertexStatusSucceeded, result.Vertices["escalate"].Status)
	assert.Equal(t, VertexStatusSkipped, result.Vertices["archive"].Status)
}

func TestBuildWorkflowUnknownExecutor(t *testing.T) {
	def, err := ParseDefinition(strings.NewReader(pipelineYAML))
	require.NoError(t, err)

	_, err = BuildWorkflow(def, testRegistry{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown executor")
}
