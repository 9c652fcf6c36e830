package print

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/dagflow/internal/registry"
)

func TestPrint(t *testing.T) {
	var buf bytes.Buffer
	r := registry.NewWithModules(&Module{Out: &buf})
	fn, err := r.Lookup("print")
	require.NoError(t, err)

	out, err := fn(context.Background(), []any{10, "x"}, map[string]any{"b": 2, "a": 1})
	require.NoError(t, err)
	assert.Equal(t, []any{10, "x"}, out)
	assert.Equal(t, "      [0] = 10\n      [1] = x\n      a = 1\n      b = 2\n", buf.String())
}

func TestPrint_Empty(t *testing.T) {
	var buf bytes.Buffer
	out, err := (&Module{Out: &buf}).Run(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Equal(t, "      (null)\n", buf.String())
}
