// Package metrics exposes Prometheus instrumentation for workflow
// runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/engine-agi/engine-core/internal/executor"
	"github.com/engine-agi/engine-core/internal/types"
	"github.com/engine-agi/engine-core/internal/workflow"
)

// Collector records run and vertex outcomes as Prometheus metrics. It
// implements workflow.RunObserver; attach it with
// workflow.WithObserver.
type Collector struct {
	workflow.NopObserver

	runsTotal     *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	vertexTotal   *prometheus.CounterVec
	superstepHist prometheus.Histogram
}

// NewCollector registers the engine metrics on the given registerer.
// Pass prometheus.DefaultRegisterer for the process-wide registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "engine",
			Subsystem: "workflow",
			Name:      "runs_total",
			Help:      "Workflow runs by terminal status.",
		}, []string{"workflow", "status"}),

		runDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "engine",
			Subsystem: "workflow",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of workflow runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}, []string{"workflow"}),

		vertexTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "engine",
			Subsystem: "workflow",
			Name:      "vertices_total",
			Help:      "Vertex completions by terminal status.",
		}, []string{"status"}),

		superstepHist: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "engine",
			Subsystem: "workflow",
			Name:      "run_supersteps",
			Help:      "Supersteps executed per run.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
}

func (c *Collector) VertexSucceeded(_ types.ID, _ string, _ *executor.Result) {
	c.vertexTotal.WithLabelValues(string(workflow.VertexStatusSucceeded)).Inc()
}

func (c *Collector) VertexFailed(_ types.ID, _ string, _ error) {
	c.vertexTotal.WithLabelValues(string(workflow.VertexStatusFailed)).Inc()
}

func (c *Collector) VertexSkipped(_ types.ID, _ string) {
	c.vertexTotal.WithLabelValues(string(workflow.VertexStatusSkipped)).Inc()
}

func (c *Collector) RunFinished(result *workflow.RunResult) {
	c.runsTotal.WithLabelValues(result.WorkflowName, string(result.Status)).Inc()
	c.runDuration.WithLabelValues(result.WorkflowName).Observe(result.Duration.Seconds())
	c.superstepHist.Observe(float64(result.Supersteps))
}
