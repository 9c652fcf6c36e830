package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/dagflow/internal/app"
	"github.com/vk/dagflow/internal/dag"
	"github.com/vk/dagflow/internal/pipeline"
	"github.com/vk/dagflow/internal/registry"
	"github.com/vk/dagflow/internal/testutil"
)

// Test for: structural problems are reported before anything runs.
func TestErrorHandling_Structure(t *testing.T) {
	testCases := []struct {
		name    string
		hcl     string
		wantErr error
	}{
		{
			name: "forward reference",
			hcl: `
pipeline "p" {
  task "a" {
    func       = "record"
    depends_on = ["b"]
  }
  task "b" {
    func = "record"
  }
}
`,
			wantErr: pipeline.ErrNotFound,
		},
		{
			name: "disconnected tasks",
			hcl: `
pipeline "p" {
  task "a" {
    func = "record"
  }
  task "b" {
    func = "record"
  }
}
`,
			wantErr: dag.ErrMissingDependency,
		},
		{
			name: "unknown function",
			hcl: `
pipeline "p" {
  task "a" {
    func = "nope"
  }
}
`,
			wantErr: registry.ErrUnknownFunc,
		},
		{
			name: "mutually dependent pipelines",
			hcl: `
pipeline "p" {
  task "a" {
    func       = "record"
    depends_on = ["pipeline.q"]
  }
}
pipeline "q" {
  task "b" {
    func       = "record"
    depends_on = ["pipeline.p"]
  }
}
`,
			wantErr: dag.ErrCircularDependency,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			rec := &testutil.Recorder{}

			// --- Act ---
			result := testutil.RunIntegrationTest(t, app.Config{}, map[string]string{"main.hcl": tc.hcl}, rec)

			// --- Assert ---
			require.Error(t, result.Err)
			assert.ErrorIs(t, result.Err, tc.wantErr)
			assert.Empty(t, rec.Calls(), "nothing should run")
		})
	}
}

// Test for: registering the same function twice is a startup failure.
func TestErrorHandling_DuplicateRegistration(t *testing.T) {
	// --- Act ---
	result := testutil.RunIntegrationTest(t, app.Config{}, map[string]string{"main.hcl": ""}, &testutil.Recorder{}, &testutil.Recorder{})

	// --- Assert ---
	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "application startup panicked")
	assert.Contains(t, result.Err.Error(), "already registered")
}
