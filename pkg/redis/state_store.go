package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "fsmbind:state:"

// StoreOption configures a StateStore.
type StoreOption func(*storeOptions)

type storeOptions struct {
	prefix    string
	opTimeout time.Duration
	ttl       time.Duration
}

// WithKeyPrefix sets the prefix prepended to every entity key.
func WithKeyPrefix(prefix string) StoreOption {
	return func(o *storeOptions) { o.prefix = prefix }
}

// WithOpTimeout bounds each Read and Write. Zero disables the deadline.
func WithOpTimeout(d time.Duration) StoreOption {
	return func(o *storeOptions) { o.opTimeout = d }
}

// WithStateTTL expires stored states d after their last write.
func WithStateTTL(d time.Duration) StoreOption {
	return func(o *storeOptions) { o.ttl = d }
}

// WithStoreConfig applies the key prefix and operation timeout from cfg.
func WithStoreConfig(cfg Config) StoreOption {
	return func(o *storeOptions) {
		if cfg.KeyPrefix != "" {
			o.prefix = cfg.KeyPrefix
		}
		o.opTimeout = cfg.OpTimeout
	}
}

// StateStore keeps the state of entities identified by K as plain string
// values. It satisfies fsmbind.Accessor[K, S].
type StateStore[K ~string, S ~string] struct {
	client redis.UniversalClient
	opts   storeOptions
}

// NewStateStore creates a store over client.
func NewStateStore[K ~string, S ~string](client redis.UniversalClient, opts ...StoreOption) *StateStore[K, S] {
	o := storeOptions{prefix: defaultKeyPrefix}
	for _, opt := range opts {
		opt(&o)
	}
	return &StateStore[K, S]{client: client, opts: o}
}

// Key returns the Redis key holding the state of id.
func (s *StateStore[K, S]) Key(id K) string {
	return s.opts.prefix + string(id)
}

// Read returns the stored state. A missing key is reported as absent.
func (s *StateStore[K, S]) Read(id K) (S, bool, error) {
	var zero S
	if id == "" {
		return zero, false, ErrEmptyKey
	}

	ctx, cancel := s.context()
	defer cancel()

	val, err := s.client.Get(ctx, s.Key(id)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return zero, false, nil
	case err != nil:
		return zero, false, errors.Join(ErrReadState, err)
	}
	return S(val), true, nil
}

// Write stores state for id.
func (s *StateStore[K, S]) Write(id K, state S) error {
	if id == "" {
		return ErrEmptyKey
	}

	ctx, cancel := s.context()
	defer cancel()

	if err := s.client.Set(ctx, s.Key(id), string(state), s.opts.ttl).Err(); err != nil {
		return errors.Join(ErrWriteState, err)
	}
	return nil
}

// Delete removes the stored state so the next Read reports it absent.
func (s *StateStore[K, S]) Delete(ctx context.Context, id K) error {
	if id == "" {
		return ErrEmptyKey
	}
	if err := s.client.Del(ctx, s.Key(id)).Err(); err != nil {
		return errors.Join(ErrWriteState, err)
	}
	return nil
}

func (s *StateStore[K, S]) context() (context.Context, context.CancelFunc) {
	if s.opts.opTimeout <= 0 {
		return context.Background(), func() {}
	}
	return context.WithTimeout(context.Background(), s.opts.opTimeout)
}
