package dag

import "fmt"

// Validate checks that the graph is acyclic and weakly connected.
func (g *Graph) Validate() error {
	if err := g.DetectCycles(); err != nil {
		return err
	}
	return g.CheckConnected()
}

// DetectCycles checks the graph for any cycles. It returns a GraphError
// wrapping ErrCircularDependency naming the node where the cycle closed.
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	// Classic depth-first search: permanent nodes are fully explored,
	// temporary nodes are on the current recursion stack.
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)
	var stack []string

	var visit func(id string) error
	visit = func(id string) error {
		if permanent[id] {
			return nil
		}
		if temporary[id] {
			cycle := []string{id}
			for i := len(stack) - 1; i >= 0 && stack[i] != id; i-- {
				cycle = append(cycle, stack[i])
			}
			return &GraphError{
				Kind:  ErrCircularDependency,
				Msg:   fmt.Sprintf("cycle detected involving node '%s'", id),
				Nodes: cycle,
			}
		}

		temporary[id] = true
		stack = append(stack, id)
		for _, e := range g.edges {
			if e.From != id {
				continue
			}
			if err := visit(e.To); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		delete(temporary, id)
		permanent[id] = true
		return nil
	}

	for _, id := range g.order {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}

// CheckConnected returns a GraphError wrapping ErrMissingDependency when
// the graph has more than one weakly connected component.
func (g *Graph) CheckConnected() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	if len(g.order) == 0 {
		return nil
	}

	seen := map[string]bool{g.order[0]: true}
	queue := []string{g.order[0]}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n := g.nodes[id]
		for next := range n.deps {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
		for next := range n.dependents {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}

	if len(seen) == len(g.order) {
		return nil
	}
	var detached []string
	for _, id := range g.order {
		if !seen[id] {
			detached = append(detached, id)
		}
	}
	return &GraphError{
		Kind:  ErrMissingDependency,
		Msg:   fmt.Sprintf("%d of %d nodes are not connected to '%s'", len(detached), len(g.order), g.order[0]),
		Nodes: detached,
	}
}

// TopologicalSort orders node ids so that every node follows the nodes it
// depends on. Ties are broken by node insertion order.
func (g *Graph) TopologicalSort() ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	indegree := make(map[string]int, len(g.nodes))
	for _, id := range g.order {
		indegree[id] = 0
	}
	for _, e := range g.edges {
		indegree[e.To]++
	}

	position := make(map[string]int, len(g.order))
	for i, id := range g.order {
		position[id] = i
	}

	var ready []string
	for _, id := range g.order {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	out := make([]string, 0, len(g.order))
	for len(ready) > 0 {
		// Pick the earliest inserted ready node.
		best := 0
		for i := range ready {
			if position[ready[i]] < position[ready[best]] {
				best = i
			}
		}
		id := ready[best]
		ready = append(ready[:best], ready[best+1:]...)
		out = append(out, id)

		for _, e := range g.edges {
			if e.From != id {
				continue
			}
			indegree[e.To]--
			if indegree[e.To] == 0 {
				ready = append(ready, e.To)
			}
		}
	}

	if len(out) != len(g.order) {
		var stuck []string
		for _, id := range g.order {
			if indegree[id] > 0 {
				stuck = append(stuck, id)
			}
		}
		return nil, &GraphError{Kind: ErrCircularDependency, Msg: "graph has no topological order", Nodes: stuck}
	}
	return out, nil
}
