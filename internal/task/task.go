package task

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/vk/dagflow/internal/ctxlog"
	"github.com/vk/dagflow/internal/nodeid"
	"github.com/zclconf/go-cty/cty"
)

// ErrNoFunc is returned by Run when the task has nothing to call.
var ErrNoFunc = errors.New("task has no function")

// Func is the callable wrapped by a task. inputs holds the upstream results
// in dependency order, kwargs the static keyword arguments.
type Func func(ctx context.Context, inputs []any, kwargs map[string]any) (any, error)

// Task is a named unit of work and its run state.
type Task struct {
	TID  string
	Name string
	Desc string

	Func     Func
	FuncName string
	Kwargs   map[string]any

	// DependsOn is the caller's list of references. It is never rewritten.
	DependsOn []Ref

	SkipValidation bool
	InputTypes     []cty.Type
	OutputType     cty.Type

	mu         sync.RWMutex
	status     Status
	result     any
	hasResult  bool
	err        error
	deps       []*Task
	related    []string
	relatedSet map[string]struct{}
}

// Option configures a Task at construction.
type Option func(*Task)

func WithName(name string) Option { return func(t *Task) { t.Name = name } }

func WithDesc(desc string) Option { return func(t *Task) { t.Desc = desc } }

func WithKwargs(kwargs map[string]any) Option { return func(t *Task) { t.Kwargs = kwargs } }

func WithDependsOn(refs ...Ref) Option {
	return func(t *Task) { t.DependsOn = append(t.DependsOn, refs...) }
}

// WithFuncName records the registry key of the function, needed to restore
// a persisted task.
func WithFuncName(name string) Option { return func(t *Task) { t.FuncName = name } }

func WithSkipValidation() Option { return func(t *Task) { t.SkipValidation = true } }

// WithTypes declares the expected input types, one per resolved dependency,
// and the output type. cty.DynamicPseudoType accepts anything.
func WithTypes(inputs []cty.Type, output cty.Type) Option {
	return func(t *Task) {
		t.InputTypes = inputs
		t.OutputType = output
	}
}

// WithTID forces the task id. Used when restoring persisted pipelines.
func WithTID(tid string) Option { return func(t *Task) { t.TID = tid } }

// New creates a task in the NotStarted state with an id from ids.
func New(ids nodeid.Generator, fn Func, opts ...Option) *Task {
	t := &Task{
		Func:       fn,
		Kwargs:     map[string]any{},
		status:     NotStarted,
		relatedSet: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.Kwargs == nil {
		t.Kwargs = map[string]any{}
	}
	if t.TID == "" {
		t.TID = ids.TaskID(t.Name)
	}
	return t
}

func (t *Task) String() string {
	if t.Name == "" {
		return t.TID
	}
	return fmt.Sprintf("%s(%s)", t.Name, t.TID)
}

// Status returns the current status.
func (t *Task) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// UpdateStatus sets the status.
func (t *Task) UpdateStatus(s Status) {
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
}

// Result returns the stored result and whether one was recorded.
func (t *Task) Result() (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.result, t.hasResult
}

// Err returns the error of the last run, if any.
func (t *Task) Err() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.err
}

// Dependencies returns the upstream tasks resolved by the pipeline builder.
func (t *Task) Dependencies() []*Task {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Task, len(t.deps))
	copy(out, t.deps)
	return out
}

// SetDependencies replaces the resolved dependency list.
func (t *Task) SetDependencies(deps []*Task) {
	t.mu.Lock()
	t.deps = append([]*Task(nil), deps...)
	t.mu.Unlock()
}

// Related returns the ids of tasks linked to this one through dependency
// resolution. Order is not significant.
func (t *Task) Related() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.related...)
}

// AddRelated records ids, ignoring ones already present.
func (t *Task) AddRelated(ids ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.relatedSet == nil {
		t.relatedSet = make(map[string]struct{})
	}
	for _, id := range ids {
		if _, ok := t.relatedSet[id]; ok {
			continue
		}
		t.relatedSet[id] = struct{}{}
		t.related = append(t.related, id)
	}
}

// Run calls the task function with inputs and the task kwargs. On success
// the result is stored. A returned error or a panic is logged, recorded and
// returned, and the result is left unset.
func (t *Task) Run(ctx context.Context, inputs []any) (err error) {
	logger := ctxlog.FromContext(ctx).With("tid", t.TID, "name", t.Name)

	t.mu.Lock()
	t.result, t.hasResult, t.err = nil, false, nil
	fn := t.Func
	t.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", t, r)
			logger.Error("Task panicked.", "error", err, "stack", string(debug.Stack()))
		}
		if err != nil {
			t.mu.Lock()
			t.err = err
			t.mu.Unlock()
		}
	}()

	if fn == nil {
		err = fmt.Errorf("%w: %s", ErrNoFunc, t)
		logger.Error("Task failed.", "error", err)
		return err
	}

	logger.Info("Task started.", "inputs", len(inputs))
	start := time.Now()
	out, err := fn(ctx, inputs, t.Kwargs)
	if err != nil {
		logger.Error("Task failed.", "error", err, "func", t.FuncName, "kwargs", t.Kwargs)
		return err
	}

	t.mu.Lock()
	t.result, t.hasResult = out, true
	t.mu.Unlock()
	logger.Info("Task finished.", "duration", time.Since(start))
	return nil
}

// Result returns t's result as a one-element slice, or an empty slice when
// the task holds no result or a nil one.
func Result(t *Task) []any {
	v, ok := t.Result()
	if !ok || v == nil {
		return []any{}
	}
	return []any{v}
}
