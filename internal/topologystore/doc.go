// Package topologystore persists the static structure of a composed
// pipeline: its DAG nodes, the tasks attached to them and the keyed edges
// between them.
//
// Run state is not stored. Task functions cannot be serialized either, so
// each task records the registry name of its function and is re-bound
// through a registry.Registry on load.
//
// Declared input and output types are stored in cty JSON type notation.
// Kwargs go through MessagePack with loose interface decoding, so on load
// signed integers come back as int64 and unsigned ones as uint64. Floats
// come back as float64 and nested collections as []any or map[string]any.
//
// The encoding is MessagePack.
package topologystore
