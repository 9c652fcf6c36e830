package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/dagflow/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// typeExprToCtyType converts a type expression such as `number` or
// `list(string)` into its cty.Type equivalent.
func typeExprToCtyType(ctx context.Context, expr hcl.Expression) (cty.Type, error) {
	logger := ctxlog.FromContext(ctx)

	if isAbsent(expr) {
		return cty.DynamicPseudoType, nil
	}

	switch v := expr.(type) {
	case *hclsyntax.FunctionCallExpr:
		if len(v.Args) != 1 {
			return cty.DynamicPseudoType, fmt.Errorf("type constructor %s requires exactly one argument, got %d", v.Name, len(v.Args))
		}
		elem, err := typeExprToCtyType(ctx, v.Args[0])
		if err != nil {
			return cty.DynamicPseudoType, err
		}
		logger.Debug("Parsed collection element type.", "constructor", v.Name, "element", elem.FriendlyName())

		switch v.Name {
		case "list":
			return cty.List(elem), nil
		case "map":
			return cty.Map(elem), nil
		case "set":
			return cty.Set(elem), nil
		default:
			return cty.DynamicPseudoType, fmt.Errorf("unknown type constructor %q", v.Name)
		}

	case *hclsyntax.ScopeTraversalExpr:
		if len(v.Traversal) != 1 {
			return cty.DynamicPseudoType, fmt.Errorf("invalid type keyword %q", traversalString(v.Traversal))
		}
		switch name := v.Traversal.RootName(); name {
		case "string":
			return cty.String, nil
		case "number":
			return cty.Number, nil
		case "bool":
			return cty.Bool, nil
		case "any":
			return cty.DynamicPseudoType, nil
		default:
			return cty.DynamicPseudoType, fmt.Errorf("unknown primitive type %q", name)
		}

	default:
		return cty.DynamicPseudoType, fmt.Errorf("unsupported expression for type definition: %T", v)
	}
}

func traversalString(t hcl.Traversal) string {
	out := t.RootName()
	for _, step := range t[1:] {
		if attr, ok := step.(hcl.TraverseAttr); ok {
			out += "." + attr.Name
		} else {
			out += "[...]"
		}
	}
	return out
}
