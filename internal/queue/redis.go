package queue

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/vk/dagflow/internal/task"
)

const defaultKeyPrefix = "dagflow:queue"

// pollInterval bounds each BLPOP so Get can observe ctx cancellation.
const pollInterval = time.Second

// Redis is a queue whose ordering lives in a Redis list. The list carries
// entry ids; task objects stay in the process and are resolved through an
// index, so a Redis queue is only meaningful to the process that filled it.
type Redis struct {
	client *redis.Client
	key    string

	seq        atomic.Uint64
	mu         sync.Mutex
	index      map[string]*task.Task
	unfinished int
}

// NewRedis returns a queue stored under a fresh key below prefix.
func NewRedis(client *redis.Client, prefix string) (*Redis, error) {
	if client == nil {
		return nil, ErrMissingClient
	}
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &Redis{
		client: client,
		key:    prefix + ":" + uuid.NewString(),
		index:  make(map[string]*task.Task),
	}, nil
}

// Key returns the Redis list key.
func (q *Redis) Key() string { return q.key }

func (q *Redis) Put(ctx context.Context, t *task.Task) error {
	entry := fmt.Sprintf("%s/%d", t.TID, q.seq.Add(1))

	q.mu.Lock()
	q.index[entry] = t
	q.unfinished++
	q.mu.Unlock()

	if err := q.client.RPush(ctx, q.key, entry).Err(); err != nil {
		q.mu.Lock()
		delete(q.index, entry)
		q.unfinished--
		q.mu.Unlock()
		return fmt.Errorf("redis queue put: %w", err)
	}
	return nil
}

func (q *Redis) Get(ctx context.Context) (*task.Task, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := q.client.BLPop(ctx, pollInterval, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			var netErr net.Error
			if ctx.Err() != nil || (errors.As(err, &netErr) && netErr.Timeout()) {
				continue
			}
			return nil, fmt.Errorf("redis queue get: %w", err)
		}
		// res is [key, value].
		entry := res[1]
		q.mu.Lock()
		t, ok := q.index[entry]
		delete(q.index, entry)
		q.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("redis queue get: unknown entry %q", entry)
		}
		return t, nil
	}
}

func (q *Redis) Done() {
	q.mu.Lock()
	if q.unfinished > 0 {
		q.unfinished--
	}
	q.mu.Unlock()
}

func (q *Redis) Empty(ctx context.Context) (bool, error) {
	n, err := q.Len(ctx)
	return n == 0, err
}

func (q *Redis) Len(ctx context.Context) (int, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis queue len: %w", err)
	}
	return int(n), nil
}

func (q *Redis) Snapshot(ctx context.Context) ([]*task.Task, error) {
	entries, err := q.client.LRange(ctx, q.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis queue snapshot: %w", err)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*task.Task, 0, len(entries))
	for _, e := range entries {
		if t, ok := q.index[e]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (q *Redis) Unfinished() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.unfinished
}
