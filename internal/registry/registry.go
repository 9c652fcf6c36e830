package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/vk/dagflow/internal/task"
)

// ErrUnknownFunc is returned by Lookup for unregistered names.
var ErrUnknownFunc = errors.New("unknown function")

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the task functions available to a single application instance.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]task.Func
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{funcs: make(map[string]task.Func)}
}

// NewWithModules creates a registry populated by mods.
func NewWithModules(mods ...Module) *Registry {
	r := New()
	for _, m := range mods {
		m.Register(r)
	}
	return r
}

// Register adds fn under name. Registering a name twice is a programmer
// error and panics.
func (r *Registry) Register(name string, fn task.Func) {
	if fn == nil {
		panic(fmt.Sprintf("function '%s' registered with a nil implementation", name))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.funcs[name]; exists {
		panic(fmt.Sprintf("function with name '%s' already registered", name))
	}
	slog.Debug("Registering task function.", "name", name)
	r.funcs[name] = fn
}

// Lookup returns the function registered under name.
func (r *Registry) Lookup(name string) (task.Func, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFunc, name)
	}
	return fn, nil
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
