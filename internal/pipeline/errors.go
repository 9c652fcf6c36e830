package pipeline

import "errors"

var (
	// ErrDependencyNotFound is returned when a reference cannot be resolved.
	ErrDependencyNotFound = errors.New("dependency not found")
	// ErrNotFound is returned by by-name lookups that match nothing.
	ErrNotFound = errors.New("not found")
	// ErrInvalidReference is returned for references holding nil targets.
	ErrInvalidReference = errors.New("invalid reference")
	// ErrIncompatibleTypes is returned when a dependency's declared output
	// cannot feed the declared input of its dependent.
	ErrIncompatibleTypes = errors.New("incompatible types")
)
