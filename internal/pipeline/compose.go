package pipeline

import (
	"context"
	"fmt"

	"github.com/vk/dagflow/internal/ctxlog"
	"github.com/vk/dagflow/internal/dag"
	"github.com/vk/dagflow/internal/task"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Compose builds the DAG from the steps. input is the enclosing pipeline
// when p is nested, used as a fallback for Named and On references; it may
// be nil. Composing again adds no nodes or edges. A pipeline nested in
// itself, directly or through other pipelines, is a circular dependency.
func (p *Pipeline) Compose(ctx context.Context, input *Pipeline) (err error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Compose: starting.", "pid", p.PID, "name", p.Name, "steps", len(p.Steps))
	defer func() { p.metrics.ObserveCompose(err) }()

	if p.composing {
		return fmt.Errorf("%w: %s is nested in itself", dag.ErrCircularDependency, p)
	}
	p.composing = true
	defer func() { p.composing = false }()

	for _, step := range p.Steps {
		switch s := step.(type) {
		case *Pipeline:
			if err := p.Merge(ctx, s); err != nil {
				return err
			}
		case *task.Task:
			if err := p.addTask(ctx, s, input); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: unsupported type %T in %s", task.ErrInvalidStep, step, p)
		}
	}

	if err := p.Validate(); err != nil {
		logger.Debug("Compose: validation failed.", "pid", p.PID, "error", err)
		return fmt.Errorf("compose %s: %w", p, err)
	}
	p.composed = true
	logger.Debug("Compose: finished.", "pid", p.PID, "nodes", p.dag.NodeCount(), "edges", p.dag.EdgeCount())
	return nil
}

// Merge composes other against p and folds its DAG into p's. Payloads of
// both graphs are kept.
func (p *Pipeline) Merge(ctx context.Context, other *Pipeline) error {
	ctxlog.FromContext(ctx).Debug("Merge: merging nested pipeline.", "pid", p.PID, "other", other.PID)
	if err := other.Compose(ctx, p); err != nil {
		return fmt.Errorf("merge %s into %s: %w", other, p, err)
	}
	merged := dag.Union(other.dag, p.dag)
	merged.Repair(other.dag, p.dag)
	p.dag = merged
	return nil
}

func (p *Pipeline) addTask(ctx context.Context, t *task.Task, input *Pipeline) error {
	deps, err := p.resolve(t, input)
	if err != nil {
		return err
	}
	if !t.SkipValidation {
		if err := checkTypes(t, deps); err != nil {
			return err
		}
	}
	t.SetDependencies(deps)

	p.dag.AddNode(t.TID, t)
	for _, dep := range deps {
		p.dag.AddEdge(dep.TID, t.TID, t.TID)
	}
	ctxlog.FromContext(ctx).Debug("Compose: task added.", "tid", t.TID, "name", t.Name, "deps", len(deps))
	return nil
}

// resolve turns t.DependsOn into concrete tasks and records related ids.
func (p *Pipeline) resolve(t *task.Task, input *Pipeline) ([]*task.Task, error) {
	deps := make([]*task.Task, 0, len(t.DependsOn))
	for _, ref := range t.DependsOn {
		var (
			dep *task.Task
			err error
		)
		switch r := ref.(type) {
		case task.PipelineRef:
			dep, err = p.resolvePipeline(t, r)
		case task.NamedRef:
			dep, err = p.resolveNamed(t, r, input)
		case task.TaskRef:
			dep, err = p.resolveTask(t, r, input)
		default:
			err = fmt.Errorf("%w: %T", ErrInvalidReference, ref)
		}
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", t, err)
		}
		deps = append(deps, dep)
	}
	return deps, nil
}

func (p *Pipeline) resolvePipeline(t *task.Task, r task.PipelineRef) (*task.Task, error) {
	if r.Pipeline == nil {
		return nil, fmt.Errorf("%w: nil pipeline", ErrInvalidReference)
	}
	if up, ok := r.Pipeline.(*Pipeline); ok && up == nil {
		return nil, fmt.Errorf("%w: nil pipeline", ErrInvalidReference)
	}
	last, err := r.Pipeline.LastStep()
	if err != nil {
		return nil, err
	}
	payload := r.Pipeline.NodeTasks(last.TID)
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: %s is not composed in the referenced pipeline", ErrDependencyNotFound, last)
	}
	t.AddRelated(taskIDs(payload)...)
	return last, nil
}

func (p *Pipeline) resolveNamed(t *task.Task, r task.NamedRef, input *Pipeline) (*task.Task, error) {
	owner := p.dag
	dep := findByName(p.dag, r.Name)
	if dep == nil && input != nil {
		owner = input.dag
		dep = findByName(input.dag, r.Name)
	}
	if dep == nil {
		return nil, fmt.Errorf("%w: %w: task %q", ErrDependencyNotFound, ErrNotFound, r.Name)
	}
	t.AddRelated(taskIDs(owner.Tasks(dep.TID))...)
	return dep, nil
}

func (p *Pipeline) resolveTask(t *task.Task, r task.TaskRef, input *Pipeline) (*task.Task, error) {
	if r.Task == nil {
		return nil, fmt.Errorf("%w: nil task", ErrInvalidReference)
	}
	owner := p
	if len(p.dag.Tasks(r.Task.TID)) == 0 {
		if input == nil || len(input.dag.Tasks(r.Task.TID)) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrDependencyNotFound, r.Task)
		}
		owner = input
	}
	var related []string
	for _, pt := range owner.dag.Tasks(r.Task.TID) {
		if owner.hasStep(pt) {
			related = append(related, pt.TID)
		}
	}
	t.AddRelated(related...)
	return r.Task, nil
}

func (p *Pipeline) hasStep(t *task.Task) bool {
	for _, s := range p.Steps {
		if s == any(t) {
			return true
		}
	}
	return false
}

func taskIDs(tasks []*task.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.TID)
	}
	return out
}

// checkTypes verifies that each dependency's declared output converts to
// the declared input at the same position. Undeclared types always pass.
func checkTypes(t *task.Task, deps []*task.Task) error {
	for i, dep := range deps {
		if i >= len(t.InputTypes) {
			break
		}
		want := t.InputTypes[i]
		have := dep.OutputType
		if want == cty.NilType || have == cty.NilType || want.Equals(cty.DynamicPseudoType) {
			continue
		}
		if convert.GetConversion(have, want) == nil {
			return fmt.Errorf("%w: %s outputs %s but %s expects %s at input %d",
				ErrIncompatibleTypes, dep, have.FriendlyName(), t, want.FriendlyName(), i)
		}
	}
	return nil
}
