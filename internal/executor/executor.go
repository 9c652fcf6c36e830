// Package executor drains a pipeline work queue with a single sequential
// worker, feeding each task the results of its upstream tasks.
package executor

import (
	"github.com/vk/dagflow/internal/metrics"
	"github.com/vk/dagflow/internal/queue"
	"github.com/vk/dagflow/internal/task"
)

// Option configures a Worker.
type Option func(*Worker)

// WithFailedStatus chooses the status of tasks whose function failed:
// Failed when true (the default), Completed when false.
func WithFailedStatus(enabled bool) Option {
	return func(w *Worker) { w.failedStatus = enabled }
}

// WithJobID labels the worker's log lines.
func WithJobID(id string) Option {
	return func(w *Worker) { w.jobID = id }
}

// WithMetrics records task runs and queue depth.
func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Worker) { w.metrics = m }
}

// New creates a worker popping from work and pushing finished tasks to
// results.
func New(work, results queue.Queue, opts ...Option) *Worker {
	w := &Worker{
		work:         work,
		results:      results,
		failedStatus: true,
		finished:     make(map[string][]*task.Task),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}
