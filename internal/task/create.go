package task

import (
	"errors"
	"fmt"

	"github.com/vk/dagflow/internal/nodeid"
)

// ErrInvalidStep is returned by Create for values it cannot turn into a task.
var ErrInvalidStep = errors.New("invalid step")

// Spec is the shorthand form of a task.
type Spec struct {
	Func           Func
	Kwargs         map[string]any
	DependsOn      []Ref
	Name           string
	Desc           string
	SkipValidation bool
	FuncName       string
}

// Create normalizes a step into a task. A *Task is returned as is, a Spec
// becomes a new task.
func Create(step any, ids nodeid.Generator) (*Task, error) {
	switch s := step.(type) {
	case *Task:
		if s == nil {
			return nil, fmt.Errorf("%w: nil task", ErrInvalidStep)
		}
		return s, nil
	case Spec:
		return fromSpec(s, ids), nil
	case *Spec:
		if s == nil {
			return nil, fmt.Errorf("%w: nil spec", ErrInvalidStep)
		}
		return fromSpec(*s, ids), nil
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", ErrInvalidStep, step)
	}
}

func fromSpec(s Spec, ids nodeid.Generator) *Task {
	opts := []Option{
		WithName(s.Name),
		WithDesc(s.Desc),
		WithKwargs(s.Kwargs),
		WithDependsOn(s.DependsOn...),
		WithFuncName(s.FuncName),
	}
	if s.SkipValidation {
		opts = append(opts, WithSkipValidation())
	}
	return New(ids, s.Func, opts...)
}
