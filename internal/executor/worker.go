package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vk/dagflow/internal/ctxlog"
	"github.com/vk/dagflow/internal/metrics"
	"github.com/vk/dagflow/internal/queue"
	"github.com/vk/dagflow/internal/task"
)

// ErrEnded is returned by Start after End released the result store.
var ErrEnded = errors.New("worker ended")

// Worker runs queued tasks one at a time.
type Worker struct {
	work         queue.Queue
	results      queue.Queue
	jobID        string
	failedStatus bool
	metrics      *metrics.Metrics

	// finished indexes tasks pushed to results by task id, in push order.
	mu       sync.Mutex
	finished map[string][]*task.Task
}

// Start runs the loop until the work queue is empty or ctx is done. Task
// failures do not stop the loop; only queue errors and cancellation do.
func (w *Worker) Start(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx).With("job_id", w.jobID)
	if w.results == nil {
		return ErrEnded
	}
	logger.Info("Worker started.")

	processed := 0
	for {
		if err := ctx.Err(); err != nil {
			logger.Warn("Worker interrupted.", "processed", processed, "error", err)
			return err
		}

		n, err := w.work.Len(ctx)
		if err != nil {
			return fmt.Errorf("worker %s: %w", w.jobID, err)
		}
		w.metrics.SetQueueDepth(n)
		if n == 0 {
			break
		}

		t, err := w.work.Get(ctx)
		if err != nil {
			return fmt.Errorf("worker %s: %w", w.jobID, err)
		}
		err = w.process(ctx, t)
		w.work.Done()
		if err != nil {
			return fmt.Errorf("worker %s: %w", w.jobID, err)
		}
		processed++
	}

	logger.Info("Worker finished.", "processed", processed)
	return nil
}

// End releases the worker's reference to the result store.
func (w *Worker) End() {
	w.mu.Lock()
	w.results = nil
	w.finished = nil
	w.mu.Unlock()
}

func (w *Worker) process(ctx context.Context, t *task.Task) error {
	logger := ctxlog.FromContext(ctx)
	t.UpdateStatus(task.Running)

	inputs := w.gatherInputs(t)

	start := time.Now()
	runErr := t.Run(ctx, inputs)
	status := task.Completed
	if runErr != nil && w.failedStatus {
		status = task.Failed
	}
	t.UpdateStatus(status)
	w.metrics.ObserveTask(status.String(), time.Since(start))
	logger.Debug("Task processed.", "tid", t.TID, "name", t.Name, "status", status.String())

	if err := w.results.Put(ctx, t); err != nil {
		return err
	}
	w.mu.Lock()
	w.finished[t.TID] = append(w.finished[t.TID], t)
	w.mu.Unlock()
	return nil
}

// gatherInputs collects, for each distinct resolved dependency in first
// occurrence order, the results held by every finished task with that id.
func (w *Worker) gatherInputs(t *task.Task) []any {
	deps := t.Dependencies()
	if len(deps) == 0 {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	var inputs []any
	seen := make(map[string]bool, len(deps))
	for _, dep := range deps {
		if seen[dep.TID] {
			continue
		}
		seen[dep.TID] = true
		for _, r := range w.finished[dep.TID] {
			inputs = append(inputs, task.Result(r)...)
		}
	}
	return inputs
}
