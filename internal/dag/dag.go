package dag

import (
	"github.com/vk/dagflow/internal/task"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes:   make(map[string]*node),
		edgeSet: make(map[Edge]struct{}),
	}
}

// AddNode ensures a node with the given id exists and attaches the tasks to
// its payload. Tasks already attached are ignored.
func (g *Graph) AddNode(id string, tasks ...*task.Task) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.addNode(id, tasks...)
}

func (g *Graph) addNode(id string, tasks ...*task.Task) *node {
	n, ok := g.nodes[id]
	if !ok {
		n = &node{
			id:         id,
			deps:       make(map[string]int),
			dependents: make(map[string]int),
		}
		g.nodes[id] = n
		g.order = append(g.order, id)
	}
	for _, t := range tasks {
		if t == nil || containsTask(n.tasks, t) {
			continue
		}
		n.tasks = append(n.tasks, t)
	}
	return n
}

func containsTask(tasks []*task.Task, t *task.Task) bool {
	for _, have := range tasks {
		if have == t {
			return true
		}
	}
	return false
}

// AddEdge adds the keyed edge from -> to, creating missing nodes without a
// payload. It reports whether the edge was new.
func (g *Graph) AddEdge(from, to, key string) bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.addEdge(Edge{From: from, To: to, Key: key})
}

func (g *Graph) addEdge(e Edge) bool {
	if _, ok := g.edgeSet[e]; ok {
		return false
	}
	fromNode := g.addNode(e.From)
	toNode := g.addNode(e.To)
	g.edgeSet[e] = struct{}{}
	g.edges = append(g.edges, e)
	toNode.deps[e.From]++
	fromNode.dependents[e.To]++
	return true
}

// HasNode reports whether id is a node.
func (g *Graph) HasNode(id string) bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

// Tasks returns the payload of id, nil for unknown or payload-less nodes.
func (g *Graph) Tasks(id string) []*task.Task {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	n, ok := g.nodes[id]
	if !ok || len(n.tasks) == 0 {
		return nil
	}
	return append([]*task.Task(nil), n.tasks...)
}

// Nodes returns node ids in insertion order.
func (g *Graph) Nodes() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return append([]string(nil), g.order...)
}

// Edges returns the keyed edges in insertion order.
func (g *Graph) Edges() []Edge {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return append([]Edge(nil), g.edges...)
}

func (g *Graph) NodeCount() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.nodes)
}

func (g *Graph) EdgeCount() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.edges)
}

// Dependencies returns the ids id depends on, in edge insertion order.
func (g *Graph) Dependencies(id string) []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	var out []string
	seen := make(map[string]bool)
	for _, e := range g.edges {
		if e.To == id && !seen[e.From] {
			seen[e.From] = true
			out = append(out, e.From)
		}
	}
	return out
}

// Dependents returns the ids that depend on id, in edge insertion order.
func (g *Graph) Dependents(id string) []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	var out []string
	seen := make(map[string]bool)
	for _, e := range g.edges {
		if e.From == id && !seen[e.To] {
			seen[e.To] = true
			out = append(out, e.To)
		}
	}
	return out
}

// Repair re-attaches the payloads of every node in srcs to the matching
// node of g, creating nodes as needed. Payloads are merged, never replaced.
func (g *Graph) Repair(srcs ...*Graph) {
	for _, src := range srcs {
		if src == nil || src == g {
			continue
		}
		src.mutex.RLock()
		payloads := make(map[string][]*task.Task, len(src.nodes))
		order := append([]string(nil), src.order...)
		for id, n := range src.nodes {
			payloads[id] = append([]*task.Task(nil), n.tasks...)
		}
		src.mutex.RUnlock()

		g.mutex.Lock()
		for _, id := range order {
			g.addNode(id, payloads[id]...)
		}
		g.mutex.Unlock()
	}
}

// Union returns a new graph holding the nodes and edges of every input.
// Shared nodes keep the payloads of all inputs.
func Union(graphs ...*Graph) *Graph {
	out := New()
	for _, src := range graphs {
		if src == nil {
			continue
		}
		out.Repair(src)
		for _, e := range src.Edges() {
			out.mutex.Lock()
			out.addEdge(e)
			out.mutex.Unlock()
		}
	}
	return out
}
