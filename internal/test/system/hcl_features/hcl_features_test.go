package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/dagflow/internal/app"
	"github.com/vk/dagflow/internal/pipeline"
	"github.com/vk/dagflow/internal/testutil"
)

// Test for: kwargs are evaluated with the built-in functions and converted
// to plain Go values.
func TestHCLFeatures_KwargsExpressions(t *testing.T) {
	// --- Arrange ---
	hcl := `
pipeline "p" {
  task "a" {
    func = "record"
    kwargs = {
      id    = "a"
      value = upper("x")
      n     = max(1, 4)
      parts = concat(["a"], ["b"])
      meta  = { owner = format("%s-%d", "team", 7) }
    }
  }
}
`
	rec := &testutil.Recorder{}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, app.Config{}, map[string]string{"main.hcl": hcl}, rec)

	// --- Assert ---
	require.NoError(t, result.Err)
	calls := rec.CallsWith("a")
	require.Len(t, calls, 1)
	kw := calls[0].Kwargs
	assert.Equal(t, "X", kw["value"])
	assert.Equal(t, int64(4), kw["n"])
	assert.Equal(t, []any{"a", "b"}, kw["parts"])
	assert.Equal(t, map[string]any{"owner": "team-7"}, kw["meta"])

	got, _ := result.Task(t, "a").Result()
	assert.Equal(t, "X", got)
}

// Test for: declared types are checked when the workflow is composed.
func TestHCLFeatures_TypeChecks(t *testing.T) {
	hcl := func(skip bool) string {
		s := "false"
		if skip {
			s = "true"
		}
		return `
pipeline "p" {
  task "producer" {
    func        = "record"
    output_type = list(string)
  }
  task "consumer" {
    func            = "record"
    depends_on      = ["producer"]
    input_types     = [bool]
    skip_validation = ` + s + `
  }
}
`
	}

	t.Run("incompatible", func(t *testing.T) {
		result := testutil.RunIntegrationTest(t, app.Config{}, map[string]string{"main.hcl": hcl(false)}, &testutil.Recorder{})
		assert.ErrorIs(t, result.Err, pipeline.ErrIncompatibleTypes)
	})

	t.Run("skip validation", func(t *testing.T) {
		result := testutil.RunIntegrationTest(t, app.Config{}, map[string]string{"main.hcl": hcl(true)}, &testutil.Recorder{})
		assert.NoError(t, result.Err)
	})
}

// Test for: definitions may be split over nested directories.
func TestHCLFeatures_MultipleFiles(t *testing.T) {
	// --- Arrange ---
	files := map[string]string{
		"pipelines/extract.hcl": `
pipeline "extract" {
  task "read" {
    func   = "record"
    kwargs = { id = "read", value = "rows" }
  }
}
`,
		"pipelines/load/load.hcl": `
pipeline "load" {
  task "write" {
    func       = "record"
    kwargs     = { id = "write" }
    depends_on = ["pipeline.extract"]
  }
}
`,
		"workflows.hcl": `
workflow "etl" {
  steps = ["extract", "load"]
}
`,
		"README.md": "not a definition",
	}
	rec := &testutil.Recorder{}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, app.Config{}, files, rec)

	// --- Assert ---
	require.NoError(t, result.Err)
	assert.Equal(t, "etl", result.Pipeline.Name)
	write := rec.CallsWith("write")
	require.Len(t, write, 1)
	assert.Equal(t, []any{"rows"}, write[0].Inputs)
}
