// Package workflow provides a superstep-based orchestration engine for
// multi-step agent workflows.
//
// A workflow is a directed graph of vertices, each binding a task to
// an executor. Three edge kinds shape the run: plain edges are hard
// dependencies, conditional edges fire per a predicate over the
// source's result, and error edges fire when the source fails
// terminally, turning the failure into a recovery path instead of a
// fatal one.
//
// Execution proceeds in supersteps. Each superstep dispatches every
// ready vertex concurrently against a single snapshot of the shared
// execution context, waits for all of them at a barrier, then applies
// their writes in dispatch order. Vertices of the same superstep never
// see each other's writes. Cycles are legal and model iteration; the
// superstep bound terminates runs whose cycles never break.
//
// Typical usage:
//
//	wf, err := workflow.NewBuilder("triage").
//		AddVertex("score", scorer, executor.Task{Description: "score input"}).
//		AddVertex("escalate", notifier, executor.Task{}).
//		AddConditionalEdgeExpr("score", "escalate", "output.score >= 0.8").
//		Build()
//	if err != nil {
//		return err
//	}
//
//	engine := workflow.NewEngine(workflow.WithLogger(logger))
//	result, err := engine.Execute(ctx, wf, nil)
package workflow
