package task

// Ref is a dependency reference. The set of variants is closed: NamedRef,
// TaskRef and PipelineRef.
type Ref interface {
	isRef()
	String() string
}

// Upstream is the view of a pipeline needed to resolve a PipelineRef.
type Upstream interface {
	// LastStep returns the final step, which must be a task.
	LastStep() (*Task, error)
	// NodeTasks returns the payload tasks stored under tid in the upstream DAG.
	NodeTasks(tid string) []*Task
}

// NamedRef refers to a task by name.
type NamedRef struct {
	Name string
}

// TaskRef refers to a task instance.
type TaskRef struct {
	Task *Task
}

// PipelineRef refers to the last step of another pipeline.
type PipelineRef struct {
	Pipeline Upstream
}

func (NamedRef) isRef()    {}
func (TaskRef) isRef()     {}
func (PipelineRef) isRef() {}

func (r NamedRef) String() string { return "name:" + r.Name }

func (r TaskRef) String() string {
	if r.Task == nil {
		return "task:<nil>"
	}
	return "task:" + r.Task.TID
}

func (r PipelineRef) String() string { return "pipeline" }

// Named builds a by-name reference.
func Named(name string) Ref { return NamedRef{Name: name} }

// On builds a reference to a concrete task.
func On(t *Task) Ref { return TaskRef{Task: t} }

// After builds a reference to the last step of p.
func After(p Upstream) Ref { return PipelineRef{Pipeline: p} }
