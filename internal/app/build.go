package app

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/vk/dagflow/internal/config"
	"github.com/vk/dagflow/internal/ctxlog"
	"github.com/vk/dagflow/internal/dag"
	"github.com/vk/dagflow/internal/pipeline"
	"github.com/vk/dagflow/internal/task"
)

var (
	// ErrUnknownWorkflow is returned when the requested workflow is not defined.
	ErrUnknownWorkflow = errors.New("unknown workflow")
	// ErrUnknownPipeline is returned for a workflow step or pipeline.X
	// reference naming an undefined pipeline.
	ErrUnknownPipeline = errors.New("unknown pipeline")
)

// Build loads the definition files and composes the selected workflow into
// one pipeline. Without a workflow name the only defined workflow is used;
// with none defined every pipeline is included, in name order.
func (a *App) Build(ctx context.Context) (*pipeline.Pipeline, error) {
	ctx = a.withLogger(ctx)
	logger := ctxlog.FromContext(ctx)
	if len(a.config.DefinitionPaths) == 0 {
		return nil, ErrMissingDefinitions
	}

	model, err := a.loader.Load(ctx, a.config.DefinitionPaths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load definitions: %w", err)
	}
	logger.Debug("Definitions loaded.", "pipelines", len(model.Pipelines), "workflows", len(model.Workflows))

	name, steps, err := selectWorkflow(model, a.config.Workflow)
	if err != nil {
		return nil, err
	}

	b := &builder{
		app:      a,
		model:    model,
		built:    make(map[string]*pipeline.Pipeline),
		visiting: make(map[string]bool),
	}
	for _, step := range steps {
		if _, err := b.pipeline(step); err != nil {
			return nil, fmt.Errorf("workflow %q: %w", name, err)
		}
	}

	members := make([]any, 0, len(b.order))
	for _, p := range b.order {
		members = append(members, p)
	}
	top, err := pipeline.New(a.ids, members, append(a.pipelineOptions(), pipeline.WithName(name))...)
	if err != nil {
		return nil, err
	}
	if err := top.Compose(ctx, nil); err != nil {
		return nil, fmt.Errorf("workflow %q: %w", name, err)
	}
	logger.Info("Workflow composed.", "workflow", name, "pipelines", len(b.order), "nodes", top.DAG().NodeCount())
	return top, nil
}

func selectWorkflow(model *config.Model, name string) (string, []string, error) {
	if name != "" {
		wf, ok := model.Workflows[name]
		if !ok {
			return "", nil, fmt.Errorf("%w: %q", ErrUnknownWorkflow, name)
		}
		return wf.Name, wf.Steps, nil
	}

	switch len(model.Workflows) {
	case 0:
		names := make([]string, 0, len(model.Pipelines))
		for n := range model.Pipelines {
			names = append(names, n)
		}
		sort.Strings(names)
		return "default", names, nil
	case 1:
		for _, wf := range model.Workflows {
			return wf.Name, wf.Steps, nil
		}
	}
	return "", nil, fmt.Errorf("%w: several workflows defined, pick one by name", ErrUnknownWorkflow)
}

// builder turns config pipelines into pipeline values. A pipeline named by
// a pipeline.X dependency is built, and ordered, before its dependents.
type builder struct {
	app      *App
	model    *config.Model
	built    map[string]*pipeline.Pipeline
	visiting map[string]bool
	order    []*pipeline.Pipeline
}

func (b *builder) pipeline(name string) (*pipeline.Pipeline, error) {
	if p, ok := b.built[name]; ok {
		return p, nil
	}
	def, ok := b.model.Pipelines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPipeline, name)
	}
	if b.visiting[name] {
		return nil, fmt.Errorf("%w: pipeline %q depends on itself", dag.ErrCircularDependency, name)
	}
	b.visiting[name] = true
	defer delete(b.visiting, name)

	steps := make([]any, 0, len(def.Tasks))
	for _, td := range def.Tasks {
		t, err := b.task(td)
		if err != nil {
			return nil, fmt.Errorf("pipeline %q: task %q: %w", name, td.Name, err)
		}
		steps = append(steps, t)
	}

	p, err := pipeline.New(b.app.ids, steps, append(b.app.pipelineOptions(), pipeline.WithName(name))...)
	if err != nil {
		return nil, fmt.Errorf("pipeline %q: %w", name, err)
	}
	b.built[name] = p
	b.order = append(b.order, p)
	return p, nil
}

func (b *builder) task(td *config.Task) (*task.Task, error) {
	fn, err := b.app.registry.Lookup(td.Func)
	if err != nil {
		return nil, err
	}

	refs := make([]task.Ref, 0, len(td.DependsOn))
	for _, dep := range td.DependsOn {
		target, isPipeline := config.SplitDependency(dep)
		if !isPipeline {
			refs = append(refs, task.Named(target))
			continue
		}
		up, err := b.pipeline(target)
		if err != nil {
			return nil, err
		}
		refs = append(refs, task.After(up))
	}

	opts := []task.Option{
		task.WithName(td.Name),
		task.WithDesc(td.Desc),
		task.WithKwargs(td.Kwargs),
		task.WithFuncName(td.Func),
		task.WithDependsOn(refs...),
		task.WithTypes(td.InputTypes, td.OutputType),
	}
	if td.SkipValidation {
		opts = append(opts, task.WithSkipValidation())
	}
	return task.New(b.app.ids, fn, opts...), nil
}
