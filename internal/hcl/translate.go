package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/dagflow/internal/config"
	"github.com/vk/dagflow/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// translatePipeline converts the HCL-specific pipeline schema into the agnostic model.
func (l *Loader) translatePipeline(ctx context.Context, pb *pipelineBlock) (*config.Pipeline, error) {
	p := &config.Pipeline{Name: pb.Name}
	names := make(map[string]struct{}, len(pb.Tasks))
	for _, tb := range pb.Tasks {
		if _, dup := names[tb.Name]; dup {
			return nil, fmt.Errorf("pipeline %q: duplicate task %q", pb.Name, tb.Name)
		}
		names[tb.Name] = struct{}{}

		t, err := l.translateTask(ctx, tb)
		if err != nil {
			return nil, fmt.Errorf("pipeline %q: task %q: %w", pb.Name, tb.Name, err)
		}
		p.Tasks = append(p.Tasks, t)
	}
	return p, nil
}

// translateTask converts the HCL-specific task schema into the agnostic model.
func (l *Loader) translateTask(ctx context.Context, tb *taskBlock) (*config.Task, error) {
	t := &config.Task{
		Name:      tb.Name,
		Func:      tb.Func,
		DependsOn: tb.DependsOn,
		Kwargs:    map[string]any{},
	}
	if tb.Desc != nil {
		t.Desc = *tb.Desc
	}
	if tb.SkipValidation != nil {
		t.SkipValidation = *tb.SkipValidation
	}

	if !isAbsent(tb.Kwargs) {
		val, diags := tb.Kwargs.Value(l.evalCtx)
		if diags.HasErrors() {
			return nil, diags
		}
		if !val.Type().IsObjectType() && !val.Type().IsMapType() {
			return nil, fmt.Errorf("kwargs must be an object, got %s", val.Type().FriendlyName())
		}
		goVal, err := ToGo(val)
		if err != nil {
			return nil, fmt.Errorf("kwargs: %w", err)
		}
		if m, ok := goVal.(map[string]any); ok {
			t.Kwargs = m
		}
	}

	if !isAbsent(tb.InputTypes) {
		exprs, diags := hcl.ExprList(tb.InputTypes)
		if diags.HasErrors() {
			return nil, diags
		}
		for i, expr := range exprs {
			ty, err := typeExprToCtyType(ctx, expr)
			if err != nil {
				return nil, fmt.Errorf("input_types[%d]: %w", i, err)
			}
			t.InputTypes = append(t.InputTypes, ty)
		}
	}
	if !isAbsent(tb.OutputType) {
		ty, err := typeExprToCtyType(ctx, tb.OutputType)
		if err != nil {
			return nil, fmt.Errorf("output_type: %w", err)
		}
		t.OutputType = ty
	}

	ctxlog.FromContext(ctx).Debug("Translated task.", "name", t.Name, "func", t.Func, "depends_on", t.DependsOn)
	return t, nil
}

// isAbsent reports whether expr is the null placeholder gohcl assigns to
// missing optional attributes.
func isAbsent(expr hcl.Expression) bool {
	if expr == nil {
		return true
	}
	if len(expr.Variables()) > 0 {
		return false
	}
	val, diags := expr.Value(nil)
	return !diags.HasErrors() && val.IsNull() && val.Type().Equals(cty.DynamicPseudoType)
}
