package dag

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCircularDependency reports a cycle.
	ErrCircularDependency = errors.New("circular dependency")
	// ErrMissingDependency reports a graph split into several components.
	ErrMissingDependency = errors.New("missing dependency")
)

// GraphError is a structural error carrying the nodes involved. Match it
// with errors.Is against ErrCircularDependency or ErrMissingDependency.
type GraphError struct {
	Kind  error
	Msg   string
	Nodes []string
}

func (e *GraphError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if len(e.Nodes) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.Nodes, ", "))
	}
	return b.String()
}

func (e *GraphError) Unwrap() error { return e.Kind }
