package dag

import (
	"sync"

	"github.com/vk/dagflow/internal/task"
)

// Graph is a keyed directed multigraph of task payloads. All operations on
// the graph are concurrency-safe.
type Graph struct {
	mutex sync.RWMutex
	// order keeps node ids in insertion order.
	order []string
	nodes map[string]*node
	// edges keeps keyed edges in insertion order.
	edges   []Edge
	edgeSet map[Edge]struct{}
}

// Edge is a keyed edge; To depends on From.
type Edge struct {
	From string
	To   string
	Key  string
}

// node represents a single vertex in the graph. It is un-exported to
// enforce interaction with the graph via the public API.
type node struct {
	id    string
	tasks []*task.Task
	// deps and dependents count parallel edges per neighbour.
	deps       map[string]int
	dependents map[string]int
}
