package pipeline

import (
	"context"
	"fmt"

	"github.com/vk/dagflow/internal/ctxlog"
	"github.com/vk/dagflow/internal/dag"
	"github.com/vk/dagflow/internal/executor"
	"github.com/vk/dagflow/internal/metrics"
	"github.com/vk/dagflow/internal/nodeid"
	"github.com/vk/dagflow/internal/queue"
	"github.com/vk/dagflow/internal/task"
)

// Pipeline is an ordered list of steps and the DAG they compose into.
type Pipeline struct {
	PID  uint64
	Name string
	// Steps holds *task.Task and *Pipeline values.
	Steps []any

	ids          nodeid.Generator
	dag          *dag.Graph
	queueKind    string
	queueOpts    []queue.Option
	failedStatus bool
	metrics      *metrics.Metrics

	// composed is set once Compose has passed validation.
	composed  bool
	composing bool

	work    queue.Queue
	results queue.Queue
}

// Option configures a Pipeline.
type Option func(*Pipeline)

func WithName(name string) Option { return func(p *Pipeline) { p.Name = name } }

// WithQueue selects the queue kind used for the work and result queues.
func WithQueue(kind string, opts ...queue.Option) Option {
	return func(p *Pipeline) {
		p.queueKind = kind
		p.queueOpts = opts
	}
}

// WithFailedStatus is forwarded to the worker, see executor.WithFailedStatus.
func WithFailedStatus(enabled bool) Option {
	return func(p *Pipeline) { p.failedStatus = enabled }
}

func WithMetrics(m *metrics.Metrics) Option { return func(p *Pipeline) { p.metrics = m } }

// New creates a pipeline. Steps may be *task.Task, task.Spec, *task.Spec or
// *Pipeline; specs become tasks using ids.
func New(ids nodeid.Generator, steps []any, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		PID:          ids.PipelineID(),
		ids:          ids,
		dag:          dag.New(),
		queueKind:    queue.KindDefault,
		failedStatus: true,
	}
	for _, opt := range opts {
		opt(p)
	}

	for i, step := range steps {
		if sub, ok := step.(*Pipeline); ok {
			if sub == nil {
				return nil, fmt.Errorf("step %d: %w: nil pipeline", i, task.ErrInvalidStep)
			}
			p.Steps = append(p.Steps, sub)
			continue
		}
		t, err := task.Create(step, ids)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		p.Steps = append(p.Steps, t)
	}
	return p, nil
}

// FromDAG wraps an already composed graph, as produced by persistence. Steps
// are the payload tasks in node order.
func FromDAG(ids nodeid.Generator, g *dag.Graph, opts ...Option) *Pipeline {
	p := &Pipeline{
		PID:          ids.PipelineID(),
		ids:          ids,
		dag:          g,
		queueKind:    queue.KindDefault,
		failedStatus: true,
		composed:     true,
	}
	for _, opt := range opts {
		opt(p)
	}
	for _, id := range g.Nodes() {
		for _, t := range g.Tasks(id) {
			p.Steps = append(p.Steps, t)
		}
	}
	return p
}

func (p *Pipeline) String() string {
	if p.Name != "" {
		return fmt.Sprintf("pipeline %d (%s)", p.PID, p.Name)
	}
	return fmt.Sprintf("pipeline %d", p.PID)
}

// DAG returns the composed graph.
func (p *Pipeline) DAG() *dag.Graph { return p.dag }

// ResultQueue returns the result store of the last Run, nil before any.
func (p *Pipeline) ResultQueue() queue.Queue { return p.results }

// WorkQueue returns the queue filled by the last Collect.
func (p *Pipeline) WorkQueue() queue.Queue { return p.work }

// LastStep returns the final step, which must be a task.
func (p *Pipeline) LastStep() (*task.Task, error) {
	if len(p.Steps) == 0 {
		return nil, fmt.Errorf("%w: %s has no steps", ErrDependencyNotFound, p)
	}
	t, ok := p.Steps[len(p.Steps)-1].(*task.Task)
	if !ok {
		return nil, fmt.Errorf("%w: last step of %s is a pipeline", ErrDependencyNotFound, p)
	}
	return t, nil
}

// NodeTasks returns the payload tasks stored under tid.
func (p *Pipeline) NodeTasks(tid string) []*task.Task {
	return p.dag.Tasks(tid)
}

// TaskByName returns the first task named name in node insertion order.
func (p *Pipeline) TaskByName(name string) (*task.Task, error) {
	if t := findByName(p.dag, name); t != nil {
		return t, nil
	}
	return nil, fmt.Errorf("%w: task %q in %s", ErrNotFound, name, p)
}

func findByName(g *dag.Graph, name string) *task.Task {
	for _, id := range g.Nodes() {
		for _, t := range g.Tasks(id) {
			if t.Name == name {
				return t
			}
		}
	}
	return nil
}

// Validate checks the DAG for cycles and then for disconnected groups.
func (p *Pipeline) Validate() error {
	return p.dag.Validate()
}

// Collect composes the pipeline unless a previous Compose succeeded, then
// enqueues every payload task in topological order on a fresh work queue
// and marks it Queued. The DAG is validated again before anything is
// enqueued, so a graph that failed validation is never run.
func (p *Pipeline) Collect(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	if !p.composed {
		logger.Debug("Collect: pipeline not composed, composing first.", "pid", p.PID)
		if err := p.Compose(ctx, nil); err != nil {
			return err
		}
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("collect %s: %w", p, err)
	}

	order, err := p.dag.TopologicalSort()
	if err != nil {
		return err
	}
	work, err := queue.New(p.queueKind, p.queueOpts...)
	if err != nil {
		return err
	}

	count := 0
	for _, id := range order {
		for _, t := range p.dag.Tasks(id) {
			t.UpdateStatus(task.Queued)
			if err := work.Put(ctx, t); err != nil {
				return err
			}
			count++
		}
	}
	p.work = work
	logger.Debug("Collect: tasks enqueued.", "pid", p.PID, "count", count)
	return nil
}

// Run executes the pipeline with a single worker. Task failures are recorded
// on the tasks; only queue errors and cancellation are returned.
func (p *Pipeline) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	results, err := queue.New(p.queueKind, p.queueOpts...)
	if err != nil {
		return err
	}
	p.results = results

	if p.work == nil {
		if err := p.Collect(ctx); err != nil {
			return err
		}
	} else if empty, err := p.work.Empty(ctx); err != nil {
		return err
	} else if empty {
		if err := p.Collect(ctx); err != nil {
			return err
		}
	}

	logger.Info("Running pipeline.", "pid", p.PID, "name", p.Name, "nodes", p.dag.NodeCount())
	w := executor.New(p.work, results,
		executor.WithJobID(fmt.Sprint(p.PID)),
		executor.WithFailedStatus(p.failedStatus),
		executor.WithMetrics(p.metrics),
	)
	defer w.End()
	return w.Start(ctx)
}
