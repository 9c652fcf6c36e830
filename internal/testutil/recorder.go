package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/vk/dagflow/internal/registry"
)

// Call is one recorded invocation.
type Call struct {
	Inputs []any
	Kwargs map[string]any
}

// Recorder is a test module registering "record", which stores its inputs
// and returns the "value" kwarg, and "fail", which always errors.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
}

// Register implements the registry.Module interface.
func (r *Recorder) Register(reg *registry.Registry) {
	reg.Register("record", r.record)
	reg.Register("fail", func(context.Context, []any, map[string]any) (any, error) {
		return nil, errors.New("intentional failure")
	})
}

func (r *Recorder) record(_ context.Context, inputs []any, kwargs map[string]any) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Inputs: append([]any(nil), inputs...), Kwargs: kwargs})
	return kwargs["value"], nil
}

// Calls returns the invocations so far, in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// CallsWith returns the invocations whose "id" kwarg equals id.
func (r *Recorder) CallsWith(id string) []Call {
	var out []Call
	for _, c := range r.Calls() {
		if c.Kwargs["id"] == id {
			out = append(out, c)
		}
	}
	return out
}
