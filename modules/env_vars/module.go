package env_vars

import (
	"context"
	"os"
	"strings"

	"github.com/vk/dagflow/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Run returns the process environment as a map. The optional "prefix"
// kwarg keeps only variables starting with it.
func Run(ctx context.Context, inputs []any, kwargs map[string]any) (any, error) {
	prefix, _ := kwargs["prefix"].(string)
	envMap := make(map[string]any)
	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) == 2 && strings.HasPrefix(pair[0], prefix) {
			envMap[pair[0]] = pair[1]
		}
	}
	return envMap, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register("env_vars", Run)
}
