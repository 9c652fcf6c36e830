// Package task defines the unit of work scheduled by a pipeline.
//
// A Task wraps a Func together with its static keyword arguments and the
// references to the upstream work it consumes. Dependency references are a
// closed set of variants built with Named, On and After; the pipeline builder
// resolves them into concrete upstream tasks and records the result on the
// task without touching the caller's DependsOn slice.
//
// Run state (status, result, last error, resolved dependencies) is guarded by
// a per-task mutex so callers may inspect a task while a worker runs it.
package task
