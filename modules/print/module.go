package print

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/vk/dagflow/internal/ctxlog"
	"github.com/vk/dagflow/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct {
	// Out receives the printed lines. Nil means os.Stdout.
	Out io.Writer
}

// Run prints the upstream inputs and the kwargs, then passes the inputs
// through unchanged.
func (m *Module) Run(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) {
	ctxlog.FromContext(ctx).Info("Printing input", "inputs", len(inputs))
	out := m.Out
	if out == nil {
		out = os.Stdout
	}

	if len(inputs) == 0 && len(kwargs) == 0 {
		fmt.Fprintln(out, "      (null)")
		return nil, nil
	}
	for i, in := range inputs {
		fmt.Fprintf(out, "      [%d] = %v\n", i, in)
	}

	// Sort keys for consistent output
	keys := make([]string, 0, len(kwargs))
	for k := range kwargs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "      %s = %v\n", k, kwargs[k])
	}

	return inputs, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register("print", m.Run)
}
