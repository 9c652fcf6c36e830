// Package registry provides the central "glue" for the module system.
//
// The Registry maps the function names used in definition files (e.g.
// "print" or "mul") to the compiled task.Func values that implement them.
// Modules register their functions at startup; the definition loader and
// the persistence layer look them up to bind tasks to callables.
package registry
