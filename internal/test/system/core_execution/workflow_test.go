package system

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/dagflow/internal/app"
	"github.com/vk/dagflow/internal/nodeid"
	"github.com/vk/dagflow/internal/queue"
	"github.com/vk/dagflow/internal/testutil"
	"github.com/vk/dagflow/modules/arith"
)

const mergedHCL = `
pipeline "first" {
  task "x" {
    func   = "const"
    kwargs = { value = 5 }
  }
  task "x2" {
    func       = "mul"
    kwargs     = { factor = 3 }
    depends_on = ["x"]
  }
}

pipeline "second" {
  task "y" {
    func       = "record"
    kwargs     = { id = "y", value = "done" }
    depends_on = ["pipeline.first"]
  }
}

workflow "main" {
  steps = ["first", "second"]
}
`

// Test for: a pipeline.X dependency feeds the last step of X into the task.
func TestCoreExecution_MergedPipelines(t *testing.T) {
	// --- Arrange ---
	rec := &testutil.Recorder{}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, app.Config{Workflow: "main"}, map[string]string{"main.hcl": mergedHCL}, rec, &arith.Module{})

	// --- Assert ---
	require.NoError(t, result.Err)
	y := rec.CallsWith("y")
	require.Len(t, y, 1)
	assert.Equal(t, []any{int64(15)}, y[0].Inputs)
	assert.Equal(t, 3, result.Pipeline.DAG().NodeCount())
	assert.Equal(t, 2, result.Pipeline.DAG().EdgeCount())
}

// Test for: with stable ids a task id is derived from its name.
func TestCoreExecution_StableIDs(t *testing.T) {
	// --- Arrange ---
	rec := &testutil.Recorder{}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, app.Config{StableIDs: true}, map[string]string{"main.hcl": mergedHCL}, rec, &arith.Module{})

	// --- Assert ---
	require.NoError(t, result.Err)
	assert.Equal(t, nodeid.FromName("x2"), result.Task(t, "x2").TID)
	assert.True(t, result.Pipeline.DAG().HasNode(nodeid.FromName("y")))
}

// Test for: the redis queue backend runs the same workflow.
func TestCoreExecution_RedisQueue(t *testing.T) {
	// --- Arrange ---
	srv := miniredis.RunT(t)
	rec := &testutil.Recorder{}
	cfg := app.Config{QueueKind: queue.KindRedis, RedisAddr: srv.Addr()}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, cfg, map[string]string{"main.hcl": mergedHCL}, rec, &arith.Module{})

	// --- Assert ---
	require.NoError(t, result.Err)
	y := rec.CallsWith("y")
	require.Len(t, y, 1)
	assert.Equal(t, []any{int64(15)}, y[0].Inputs)
}
