package queue

import (
	"fmt"

	"github.com/go-redis/redis/v8"
)

type options struct {
	client    *redis.Client
	keyPrefix string
}

// Option configures queues built by New.
type Option func(*options)

// WithRedis sets the client used by KindRedis queues.
func WithRedis(client *redis.Client) Option {
	return func(o *options) { o.client = client }
}

// WithKeyPrefix sets the key prefix of KindRedis queues.
func WithKeyPrefix(prefix string) Option {
	return func(o *options) { o.keyPrefix = prefix }
}

// New builds a queue of the given kind. An empty kind means KindDefault.
func New(kind string, opts ...Option) (Queue, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	switch kind {
	case "", KindDefault:
		return NewMemory(), nil
	case KindRedis:
		return NewRedis(o.client, o.keyPrefix)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
