package workflow

import (
	"time"

	"github.com/engine-agi/engine-core/internal/executor"
)

// edgeState tracks an edge's firing state. States are sticky within a
// loop iteration: a conditional edge that evaluated false stays dead
// for its target until the source runs again, which resets the edge to
// unknown.
type edgeState int

const (
	edgeUnknown   edgeState = iota // source not yet resolved
	edgeSatisfied                  // fired
	edgeDead                       // resolved without firing
)

// VertexRunState is the per-vertex record of one run.
type VertexRunState struct {
	Status     VertexStatus
	Attempts   int
	Superstep  int // superstep of the most recent dispatch
	Result     *executor.Result
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// runState is the engine's mutable view of one run. Only the engine
// goroutine touches it, at dispatch and at the barrier, so it needs no
// locking of its own.
type runState struct {
	w        *Workflow
	vertices map[string]*VertexRunState
	edges    map[*Edge]edgeState

	// armed marks vertices with an incoming edge fired since their
	// last dispatch. A vertex that already ran is re-dispatched only
	// when armed, which is how loop iterations trigger without
	// completed joins re-running forever.
	armed map[string]bool

	// runs counts dispatches per vertex. A firing from a source on
	// its second or later run is a loop iteration and may re-arm
	// completed targets; a first-run firing may not.
	runs map[string]int
}

func newRunState(w *Workflow) *runState {
	s := &runState{
		w:        w,
		vertices: make(map[string]*VertexRunState, len(w.order)),
		edges:    make(map[*Edge]edgeState, len(w.edges)),
		armed:    make(map[string]bool, len(w.order)),
		runs:     make(map[string]int, len(w.order)),
	}
	for _, id := range w.order {
		s.vertices[id] = &VertexRunState{Status: VertexStatusPending}
	}
	for _, e := range w.edges {
		s.edges[e] = edgeUnknown
	}
	return s
}

// ready reports whether the vertex can be dispatched.
//
// First dispatch (still pending): every incoming plain edge must have
// fired and, if any trigger edges (conditional or error) arrive, at
// least one must have fired. Loop-back edges are ignored, otherwise a
// cycle could never start turning. Entry vertices therefore qualify
// immediately.
//
// Re-dispatch (already ran): same join rule over all incoming edges,
// gated on the vertex having been re-armed by a fresh firing.
func (s *runState) ready(id string) bool {
	vs := s.vertices[id]
	if vs.Status == VertexStatusReady || vs.Status == VertexStatusRunning {
		return false
	}

	first := vs.Status == VertexStatusPending
	if !first && !s.armed[id] {
		return false
	}

	triggers := 0
	fired := 0
	for _, e := range s.w.incoming[id] {
		if first && e.loopback {
			continue
		}
		switch e.Kind {
		case EdgePlain:
			if s.edges[e] != edgeSatisfied {
				return false
			}
		default:
			triggers++
			if s.edges[e] == edgeSatisfied {
				fired++
			}
		}
	}
	return triggers == 0 || fired > 0
}

// blocked reports whether a pending vertex can never reach its first
// dispatch: some plain edge is dead, or all of its trigger edges are
// dead. Loop-backs are ignored, as in ready. Drives the skip cascade.
func (s *runState) blocked(id string) bool {
	triggers := 0
	deadTriggers := 0
	for _, e := range s.w.incoming[id] {
		if e.loopback {
			continue
		}
		switch e.Kind {
		case EdgePlain:
			if s.edges[e] == edgeDead {
				return true
			}
		default:
			triggers++
			if s.edges[e] == edgeDead {
				deadTriggers++
			}
		}
	}
	return triggers > 0 && deadTriggers == triggers
}

// markReady records that the vertex was selected into the current
// frontier and is waiting for a dispatch slot.
func (s *runState) markReady(id string) {
	s.vertices[id].Status = VertexStatusReady
}

// markRunning records a dispatch. The armed flag is consumed, and the
// vertex's outgoing edges reset to unknown so firings from a previous
// iteration do not leak into this one.
func (s *runState) markRunning(id string, superstep int) {
	vs := s.vertices[id]
	vs.Status = VertexStatusRunning
	vs.Superstep = superstep
	vs.StartedAt = time.Now()

	s.armed[id] = false
	s.runs[id]++
	for _, e := range s.w.outgoing[id] {
		s.edges[e] = edgeUnknown
	}
}

// fire satisfies the edge and arms its target. A target that already
// completed re-arms only for loop iterations, signalled by a loop-back
// edge or by a source on its second or later run; a sibling trigger
// firing for the first time must not re-run a completed vertex.
// Pending and skipped targets always arm, which is what lets a
// cascade-skipped vertex revive when its edge eventually fires.
func (s *runState) fire(e *Edge) {
	s.edges[e] = edgeSatisfied

	vs := s.vertices[e.To]
	if vs.Status == VertexStatusSucceeded || vs.Status == VertexStatusFailed {
		if !e.loopback && s.runs[e.From] < 2 {
			return
		}
	}
	s.armed[e.To] = true
}

// markSucceeded resolves a vertex's success: plain edges fire,
// conditional edges fire per predicate, error edges go dead.
func (s *runState) markSucceeded(id string, result *executor.Result) {
	vs := s.vertices[id]
	vs.Status = VertexStatusSucceeded
	vs.Result = result
	vs.Err = nil
	vs.FinishedAt = time.Now()

	for _, e := range s.w.outgoing[id] {
		switch e.Kind {
		case EdgePlain:
			s.fire(e)
		case EdgeConditional:
			if e.Predicate != nil && e.Predicate(result) {
				s.fire(e)
			} else {
				s.edges[e] = edgeDead
			}
		case EdgeError:
			s.edges[e] = edgeDead
		}
	}
}

// markFailed resolves a terminal failure: error edges fire, forward
// edges go dead. Returns true if the failure is fatal, i.e. no error
// edge absorbed it.
func (s *runState) markFailed(id string, err error) (fatal bool) {
	vs := s.vertices[id]
	vs.Status = VertexStatusFailed
	vs.Err = err
	vs.FinishedAt = time.Now()

	fatal = true
	for _, e := range s.w.outgoing[id] {
		if e.Kind == EdgeError {
			s.fire(e)
			fatal = false
		} else {
			s.edges[e] = edgeDead
		}
	}
	return fatal
}

// markSkipped resolves a vertex that can never run; its outgoing edges
// go dead so the skip cascades.
func (s *runState) markSkipped(id string) {
	vs := s.vertices[id]
	vs.Status = VertexStatusSkipped
	vs.FinishedAt = time.Now()

	for _, e := range s.w.outgoing[id] {
		s.edges[e] = edgeDead
	}
}

// cascadeSkips repeatedly skips pending vertices whose first dispatch
// has become impossible, until a fixed point.
func (s *runState) cascadeSkips() {
	for {
		progressed := false
		for _, id := range s.w.order {
			if s.vertices[id].Status != VertexStatusPending {
				continue
			}
			if s.blocked(id) {
				s.markSkipped(id)
				progressed = true
			}
		}
		if !progressed {
			return
		}
	}
}

// snapshot copies the per-vertex records for the final result.
func (s *runState) snapshot() map[string]VertexRunState {
	out := make(map[string]VertexRunState, len(s.vertices))
	for id, vs := range s.vertices {
		out[id] = *vs
	}
	return out
}
