package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/dagflow/internal/app"
	"github.com/vk/dagflow/internal/task"
	"github.com/vk/dagflow/internal/testutil"
)

const failingHCL = `
pipeline "p" {
  task "a" {
    func   = "record"
    kwargs = { id = "a", value = 1 }
  }
  task "b" {
    func       = "fail"
    depends_on = ["a"]
  }
  task "c" {
    func       = "record"
    kwargs     = { id = "c" }
    depends_on = ["b"]
  }
}
`

// Test for: a failing task does not stop the run and its dependents get no
// input from it.
func TestErrorHandling_TaskFailure(t *testing.T) {
	testCases := []struct {
		name       string
		bestEffort bool
		wantStatus task.Status
	}{
		{name: "failed status", bestEffort: false, wantStatus: task.Failed},
		{name: "best effort", bestEffort: true, wantStatus: task.Completed},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			rec := &testutil.Recorder{}

			// --- Act ---
			result := testutil.RunIntegrationTest(t, app.Config{BestEffort: tc.bestEffort}, map[string]string{"main.hcl": failingHCL}, rec)

			// --- Assert ---
			require.NoError(t, result.Err)
			b := result.Task(t, "b")
			assert.Equal(t, tc.wantStatus, b.Status())
			assert.ErrorContains(t, b.Err(), "intentional failure")

			c := rec.CallsWith("c")
			require.Len(t, c, 1)
			assert.Empty(t, c[0].Inputs)
			assert.Equal(t, task.Completed, result.Task(t, "c").Status())
			assert.Contains(t, result.LogOutput, "Task failed.")
		})
	}
}
