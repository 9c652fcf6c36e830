package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Pipelines []*pipelineBlock `hcl:"pipeline,block"`
	Workflows []*workflowBlock `hcl:"workflow,block"`
	Remain    hcl.Body         `hcl:",remain"`
}

type pipelineBlock struct {
	Name  string       `hcl:"name,label"`
	Tasks []*taskBlock `hcl:"task,block"`
}

type taskBlock struct {
	Name           string         `hcl:"name,label"`
	Func           string         `hcl:"func"`
	Desc           *string        `hcl:"desc,optional"`
	Kwargs         hcl.Expression `hcl:"kwargs,optional"`
	DependsOn      []string       `hcl:"depends_on,optional"`
	SkipValidation *bool          `hcl:"skip_validation,optional"`
	InputTypes     hcl.Expression `hcl:"input_types,optional"`
	OutputType     hcl.Expression `hcl:"output_type,optional"`
}

type workflowBlock struct {
	Name  string   `hcl:"name,label"`
	Steps []string `hcl:"steps"`
}
