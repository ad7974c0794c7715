package workflow

import "fmt"

// validate checks graph structure and fills the workflow's derived
// fields: entry points, cyclic flag, warnings. Called by Build after
// endpoint resolution; returns every defect found.
func validate(w *Workflow) []error {
	var errs []error

	w.cyclic = classifyEdges(w)

	// Entry points: every incoming edge, if any, is a loop-back. A
	// vertex fed by a forward edge waits for it; a vertex fed only by
	// loop-backs must start first or its cycle never turns.
	for _, id := range w.order {
		entry := true
		for _, e := range w.incoming[id] {
			if !e.loopback {
				entry = false
				break
			}
		}
		if entry {
			w.entryPoints = append(w.entryPoints, id)
		}
	}
	if len(w.order) > 0 && len(w.entryPoints) == 0 {
		errs = append(errs, &NoEntryPointError{})
	}
	if w.cyclic && !cycleBreakable(w) {
		w.warnings = append(w.warnings,
			"workflow contains a cycle with no conditional or error edge to break it; the run will terminate only at the superstep bound")
	}

	// An error edge whose target can reach its source through
	// forward edges would re-enter the failed region on recovery.
	for _, e := range w.edges {
		if e.Kind != EdgeError {
			continue
		}
		if reaches(w, e.To, e.From) {
			errs = append(errs, &InvalidErrorEdgeError{From: e.From, To: e.To})
		}
	}

	return errs
}

// classifyEdges runs three-color DFS over plain and conditional
// edges, marking edges into gray vertices as loop-backs. Roots are
// taken in insertion order, which makes the classification
// deterministic. Error edges are recovery paths and do not
// participate. Returns whether any cycle exists.
func classifyEdges(w *Workflow) bool {
	const (
		white = 0 // unvisited
		gray  = 1 // on stack
		black = 2 // done
	)
	color := make(map[string]int, len(w.order))
	cyclic := false

	var visit func(id string)
	visit = func(id string) {
		color[id] = gray
		for _, e := range w.outgoing[id] {
			if e.Kind == EdgeError {
				continue
			}
			switch color[e.To] {
			case gray:
				e.loopback = true
				cyclic = true
			case white:
				visit(e.To)
			}
		}
		color[id] = black
	}

	for _, id := range w.order {
		if color[id] == white {
			visit(id)
		}
	}
	return cyclic
}

// cycleBreakable reports whether some cycle participant has a
// conditional edge inside the cycle or an error edge anywhere, either
// of which can stop iteration before the superstep bound.
func cycleBreakable(w *Workflow) bool {
	for _, id := range cycleVertices(w) {
		for _, e := range w.outgoing[id] {
			if e.Kind == EdgeConditional || e.Kind == EdgeError {
				return true
			}
		}
	}
	return false
}

// cycleVertices returns the vertices on at least one plain/conditional
// cycle: those in a strongly connected component of size > 1, plus
// self-loops. Tarjan would be the textbook answer; for validation-time
// graphs a reachability sweep is plenty.
func cycleVertices(w *Workflow) []string {
	var out []string
	for _, id := range w.order {
		for _, e := range w.outgoing[id] {
			if e.Kind == EdgeError {
				continue
			}
			if e.To == id || reaches(w, e.To, id) {
				out = append(out, id)
				break
			}
		}
	}
	return out
}

// reaches reports whether `to` is reachable from `from` via plain and
// conditional edges.
func reaches(w *Workflow, from, to string) bool {
	if from == to {
		return true
	}
	seen := map[string]bool{from: true}
	stack := []string{from}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range w.outgoing[id] {
			if e.Kind == EdgeError {
				continue
			}
			if e.To == to {
				return true
			}
			if !seen[e.To] {
				seen[e.To] = true
				stack = append(stack, e.To)
			}
		}
	}
	return false
}

// Validate re-checks an already built workflow. Build performs the
// same checks; this exists for callers assembling workflows from
// parsed definitions who want validation as a separate step.
func (w *Workflow) Validate() error {
	if len(w.order) == 0 {
		return fmt.Errorf("workflow %q has no vertices", w.name)
	}
	if len(w.entryPoints) == 0 {
		return &NoEntryPointError{}
	}
	return nil
}
