package config

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// PipelineRefPrefix marks a depends_on entry that refers to the last step
// of another pipeline, as in "pipeline.extract".
const PipelineRefPrefix = "pipeline."

// Model is the unified, format-agnostic representation of all loaded
// definition files.
type Model struct {
	Pipelines map[string]*Pipeline
	Workflows map[string]*Workflow
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{
		Pipelines: make(map[string]*Pipeline),
		Workflows: make(map[string]*Workflow),
	}
}

// Pipeline is the format-agnostic representation of a `pipeline` block.
type Pipeline struct {
	Name  string
	Tasks []*Task
}

// Task is the format-agnostic representation of a `task` block.
type Task struct {
	Name           string
	Func           string
	Desc           string
	Kwargs         map[string]any
	DependsOn      []string
	SkipValidation bool
	InputTypes     []cty.Type
	OutputType     cty.Type
}

// Workflow names the pipelines run together, in order.
type Workflow struct {
	Name  string
	Steps []string
}

// AddPipeline adds p, rejecting duplicate names.
func (m *Model) AddPipeline(p *Pipeline) error {
	if _, exists := m.Pipelines[p.Name]; exists {
		return fmt.Errorf("duplicate pipeline %q", p.Name)
	}
	m.Pipelines[p.Name] = p
	return nil
}

// AddWorkflow adds w, rejecting duplicate names.
func (m *Model) AddWorkflow(w *Workflow) error {
	if _, exists := m.Workflows[w.Name]; exists {
		return fmt.Errorf("duplicate workflow %q", w.Name)
	}
	m.Workflows[w.Name] = w
	return nil
}

// SplitDependency reports whether dep refers to a pipeline and returns the
// pipeline or task name it points at.
func SplitDependency(dep string) (name string, isPipeline bool) {
	if rest, ok := strings.CutPrefix(dep, PipelineRefPrefix); ok {
		return rest, true
	}
	return dep, false
}
