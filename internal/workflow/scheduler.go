package workflow

// readyVertices computes the next superstep's frontier: every vertex
// whose dependencies are satisfied, in insertion order. Insertion
// order is the deterministic tie-break for dispatch and for barrier
// application.
func (s *runState) readyVertices() []string {
	var out []string
	for _, id := range s.w.order {
		if s.ready(id) {
			out = append(out, id)
		}
	}
	return out
}

// unresolved reports whether any vertex is still pending, which
// distinguishes a finished run from one that starved: a run with no
// ready vertices and no pending ones has simply completed.
func (s *runState) unresolved() bool {
	for _, vs := range s.vertices {
		if vs.Status == VertexStatusPending || vs.Status == VertexStatusRunning {
			return true
		}
	}
	return false
}

// counts tallies vertex statuses for logging and metrics.
func (s *runState) counts() map[VertexStatus]int {
	out := make(map[VertexStatus]int)
	for _, vs := range s.vertices {
		out[vs.Status]++
	}
	return out
}
