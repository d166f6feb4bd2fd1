package reactive

// depGraph records read-edges from in-flight evaluations to the nodes they
// read. Edges always point reader -> node-read and are rebuilt from scratch
// on every evaluation of the reader, so conditional reads re-subscribe
// correctly between runs.
type depGraph struct {
	// Adjacency list representation for better memory efficiency
	downstream map[node][]node // node-read -> readers
	upstream   map[node][]node // reader -> nodes-read

	// Active-evaluation stack; the top frame collects the current reader's
	// new edge set.
	stack []*trackingFrame
}

type trackingFrame struct {
	reader node
	reads  []node
	seen   map[node]struct{}
}

func newDepGraph() *depGraph {
	return &depGraph{
		downstream: make(map[node][]node),
		upstream:   make(map[node][]node),
	}
}

// beginTracking pushes a fresh, empty edge set for the reader onto the
// active-evaluation stack.
func (g *depGraph) beginTracking(reader node) {
	g.stack = append(g.stack, &trackingFrame{
		reader: reader,
		seen:   make(map[node]struct{}),
	})
}

// recordRead adds an edge from the current reader (top of stack) to target.
// With an empty stack the read is isolated and no edge is recorded. A read
// of a node that is already on the stack closes a cycle.
func (g *depGraph) recordRead(target node) error {
	if len(g.stack) == 0 {
		return nil
	}

	for _, f := range g.stack {
		if f.reader == target {
			active := make([]Node, len(g.stack))
			for i, sf := range g.stack {
				active[i] = sf.reader
			}
			return &CycleError{Node: target, Stack: active}
		}
	}

	top := g.stack[len(g.stack)-1]
	if _, dup := top.seen[target]; dup {
		return nil
	}
	top.seen[target] = struct{}{}
	top.reads = append(top.reads, target)
	return nil
}

// endTracking pops the stack and atomically replaces the reader's prior
// upstream edge set with the newly recorded one: old edges not present in
// the new set are removed from their targets' dependent sets, new edges
// are added. Returns the finalized edge set.
func (g *depGraph) endTracking(reader node) []node {
	top := g.stack[len(g.stack)-1]
	if top.reader != reader {
		panic("reactive: endTracking reader does not match active evaluation")
	}
	g.stack = g.stack[:len(g.stack)-1]

	for _, old := range g.upstream[reader] {
		if _, kept := top.seen[old]; !kept {
			g.downstream[old] = removeElement(g.downstream[old], reader)
			if len(g.downstream[old]) == 0 {
				delete(g.downstream, old)
			}
		}
	}
	for _, read := range top.reads {
		g.downstream[read] = appendUnique(g.downstream[read], reader)
	}

	if len(top.reads) == 0 {
		delete(g.upstream, reader)
	} else {
		g.upstream[reader] = top.reads
	}
	return top.reads
}

// addStaticEdge registers a permanent edge (used for event-gate triggers,
// which are never rebuilt by tracking).
func (g *depGraph) addStaticEdge(reader node, target node) {
	g.downstream[target] = appendUnique(g.downstream[target], reader)
	g.upstream[reader] = appendUnique(g.upstream[reader], target)
}

// invalidateFrom performs an iterative walk over all transitive dependents
// of start, marking each stale exactly once and collecting the observers
// encountered. It never recomputes anything; recursion stops at nodes that
// are already stale, which is what makes a diamond invalidate once per
// node regardless of how many paths reach it.
func (g *depGraph) invalidateFrom(start node) []*Observer {
	stack := make([]node, 0, 32)
	stack = append(stack, g.downstream[start]...)

	var pending []*Observer
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !current.invalidateNode() {
			continue
		}

		if obs, ok := current.(*Observer); ok {
			pending = append(pending, obs)
			continue
		}

		stack = append(stack, g.downstream[current]...)
	}
	return pending
}

// directDependents returns a copy of the direct dependents of a node.
func (g *depGraph) directDependents(n node) []node {
	deps, exists := g.downstream[n]
	if !exists {
		return nil
	}
	result := make([]node, len(deps))
	copy(result, deps)
	return result
}

// forget removes every edge touching a node (used on deactivation).
func (g *depGraph) forget(n node) {
	for _, up := range g.upstream[n] {
		g.downstream[up] = removeElement(g.downstream[up], n)
		if len(g.downstream[up]) == 0 {
			delete(g.downstream, up)
		}
	}
	delete(g.upstream, n)
}

// Utility functions for working with slices efficiently

func appendUnique[T comparable](slice []T, item T) []T {
	for _, existing := range slice {
		if existing == item {
			return slice
		}
	}
	return append(slice, item)
}

func removeElement[T comparable](slice []T, item T) []T {
	for i, existing := range slice {
		if existing == item {
			return append(slice[:i], slice[i+1:]...)
		}
	}
	return slice
}
