// Package queue provides the FIFO queues a pipeline uses for pending work
// and completed results, and the warehouse that builds them by kind.
package queue

import (
	"context"
	"errors"

	"github.com/vk/dagflow/internal/task"
)

// Kinds understood by New.
const (
	KindDefault = "default"
	KindRedis   = "redis"
)

var (
	// ErrUnknownKind is returned by New for an unregistered queue kind.
	ErrUnknownKind = errors.New("unknown queue kind")
	// ErrMissingClient is returned when a redis queue has no client.
	ErrMissingClient = errors.New("redis queue requires a client")
)

// Queue is a FIFO of tasks safe for concurrent use.
type Queue interface {
	// Put appends t.
	Put(ctx context.Context, t *task.Task) error
	// Get removes and returns the oldest task, blocking until one is
	// available or ctx is done.
	Get(ctx context.Context) (*task.Task, error)
	// Done marks a task previously returned by Get as processed.
	Done()
	// Empty reports whether no task is waiting.
	Empty(ctx context.Context) (bool, error)
	// Len returns the number of waiting tasks.
	Len(ctx context.Context) (int, error)
	// Snapshot returns the waiting tasks in order without removing them.
	Snapshot(ctx context.Context) ([]*task.Task, error)
	// Unfinished returns the number of Put calls not yet matched by Done.
	Unfinished() int
}
