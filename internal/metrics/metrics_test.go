package metrics

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engine-agi/engine-core/internal/executor"
	"github.com/engine-agi/engine-core/internal/workflow"
)

func TestCollectorRecordsRun(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := NewCollector(registry)

	wf, err := workflow.NewBuilder("observed").
		AddVertex("a", executor.Echo("a"), executor.Task{}).
		AddVertex("b", executor.Echo("b"), executor.Task{}).
		AddEdge("a", "b").
		Build()
	require.NoError(t, err)

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := workflow.NewEngine(workflow.WithLogger(quiet), workflow.WithObserver(collector))

	_, err = engine.Execute(context.Background(), wf, nil)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(
		collector.runsTotal.WithLabelValues("observed", string(workflow.RunStatusCompleted))))
	assert.Equal(t, 2.0, testutil.ToFloat64(
		collector.vertexTotal.WithLabelValues(string(workflow.VertexStatusSucceeded))))
}

func TestCollectorRegistersOnce(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewCollector(registry)
	assert.Panics(t, func() { NewCollector(registry) }, "duplicate registration must panic via promauto")
}
