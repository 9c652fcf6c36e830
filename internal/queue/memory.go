package queue

import (
	"context"
	"sync"

	"github.com/vk/dagflow/internal/task"
)

// Memory is the in-process queue behind KindDefault.
type Memory struct {
	mu         sync.Mutex
	items      []*task.Task
	unfinished int
	ready      chan struct{}
}

// NewMemory returns an empty in-memory queue.
func NewMemory() *Memory {
	return &Memory{ready: make(chan struct{}, 1)}
}

func (q *Memory) Put(_ context.Context, t *task.Task) error {
	q.mu.Lock()
	q.items = append(q.items, t)
	q.unfinished++
	q.mu.Unlock()
	q.signal()
	return nil
}

func (q *Memory) Get(ctx context.Context) (*task.Task, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			t := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			more := len(q.items) > 0
			q.mu.Unlock()
			if more {
				q.signal()
			}
			return t, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.ready:
		}
	}
}

func (q *Memory) Done() {
	q.mu.Lock()
	if q.unfinished > 0 {
		q.unfinished--
	}
	q.mu.Unlock()
}

func (q *Memory) Empty(ctx context.Context) (bool, error) {
	n, err := q.Len(ctx)
	return n == 0, err
}

func (q *Memory) Len(context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items), nil
}

func (q *Memory) Snapshot(context.Context) ([]*task.Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*task.Task(nil), q.items...), nil
}

func (q *Memory) Unfinished() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.unfinished
}

// signal wakes one blocked Get without blocking the caller.
func (q *Memory) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
