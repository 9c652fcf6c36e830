// Package dag implements the keyed directed multigraph that a pipeline
// composes its tasks into.
//
// Nodes are keyed by task id and carry a payload: every distinct task
// instance ever attached under that id. Edges are keyed too, so adding the
// same (from, to, key) edge twice is a no-op. Nodes may exist without a
// payload when an edge points at a task owned by another pipeline.
//
// A valid graph is acyclic and forms a single weakly connected component.
// The empty graph is valid.
package dag
