package hcl

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/dagflow/internal/config"
	"github.com/vk/dagflow/internal/ctxlog"
	"github.com/vk/dagflow/internal/fsutil"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	evalCtx *hcl.EvalContext
}

// NewLoader creates a new HCL definition loader. Expressions in kwargs may
// call a small set of functions such as upper, join or max.
func NewLoader() *Loader {
	return &Loader{
		evalCtx: &hcl.EvalContext{
			Functions: map[string]function.Function{
				"upper":  stdlib.UpperFunc,
				"lower":  stdlib.LowerFunc,
				"join":   stdlib.JoinFunc,
				"concat": stdlib.ConcatFunc,
				"max":    stdlib.MaxFunc,
				"min":    stdlib.MinFunc,
				"length": stdlib.LengthFunc,
				"format": stdlib.FormatFunc,
			},
		},
	}
}

// Load orchestrates the entire HCL loading process. It parses every .hcl
// file found under paths and merges their blocks into one model.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	model := config.NewModel()

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(hclFiles) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	parser := hclparse.NewParser()

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, l.evalCtx, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, pb := range root.Pipelines {
			p, err := l.translatePipeline(ctx, pb)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			if err := model.AddPipeline(p); err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
		}
		for _, wb := range root.Workflows {
			if err := model.AddWorkflow(&config.Workflow{Name: wb.Name, Steps: wb.Steps}); err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
		}
	}

	logger.Debug("HCL loading complete.", "pipelines", len(model.Pipelines), "workflows", len(model.Workflows))
	return model, nil
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl files found.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			add(path)
			continue
		}
		found, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			add(f)
		}
	}
	return allFiles, nil
}
