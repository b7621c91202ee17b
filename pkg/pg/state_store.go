package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultNamespace = "default"

	selectState = `SELECT state FROM fsm_entity_states WHERE namespace = $1 AND entity_id = $2`
	upsertState = `INSERT INTO fsm_entity_states (namespace, entity_id, state, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (namespace, entity_id) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`
	deleteState = `DELETE FROM fsm_entity_states WHERE namespace = $1 AND entity_id = $2`
)

// StoreOption configures a StateStore.
type StoreOption func(*storeOptions)

type storeOptions struct {
	namespace string
	opTimeout time.Duration
}

// WithNamespace separates one kind of entity from others sharing the table.
func WithNamespace(ns string) StoreOption {
	return func(o *storeOptions) { o.namespace = ns }
}

// WithOpTimeout bounds each Read and Write. Zero disables the deadline.
func WithOpTimeout(d time.Duration) StoreOption {
	return func(o *storeOptions) { o.opTimeout = d }
}

// WithStoreConfig applies the namespace and operation timeout from cfg.
func WithStoreConfig(cfg Config) StoreOption {
	return func(o *storeOptions) {
		if cfg.Namespace != "" {
			o.namespace = cfg.Namespace
		}
		o.opTimeout = cfg.OpTimeout
	}
}

// StateStore keeps the state of entities identified by K in
// fsm_entity_states. It satisfies fsmbind.Accessor[K, S].
type StateStore[K ~string, S ~string] struct {
	pool *pgxpool.Pool
	opts storeOptions
}

// NewStateStore creates a store over pool. Run Migrate first.
func NewStateStore[K ~string, S ~string](pool *pgxpool.Pool, opts ...StoreOption) *StateStore[K, S] {
	o := storeOptions{namespace: defaultNamespace}
	for _, opt := range opts {
		opt(&o)
	}
	return &StateStore[K, S]{pool: pool, opts: o}
}

// Read returns the stored state. A missing row is reported as absent.
func (s *StateStore[K, S]) Read(id K) (S, bool, error) {
	var zero S
	if id == "" {
		return zero, false, ErrEmptyKey
	}

	ctx, cancel := s.context()
	defer cancel()

	var state string
	err := s.pool.QueryRow(ctx, selectState, s.opts.namespace, string(id)).Scan(&state)
	switch {
	case IsNotFoundError(err):
		return zero, false, nil
	case err != nil:
		return zero, false, errors.Join(ErrReadState, err)
	}
	return S(state), true, nil
}

// Write inserts or replaces the state of id.
func (s *StateStore[K, S]) Write(id K, state S) error {
	if id == "" {
		return ErrEmptyKey
	}

	ctx, cancel := s.context()
	defer cancel()

	if _, err := s.pool.Exec(ctx, upsertState, s.opts.namespace, string(id), string(state)); err != nil {
		return errors.Join(ErrWriteState, err)
	}
	return nil
}

// Delete removes the row of id so the next Read reports it absent.
func (s *StateStore[K, S]) Delete(ctx context.Context, id K) error {
	if id == "" {
		return ErrEmptyKey
	}
	if _, err := s.pool.Exec(ctx, deleteState, s.opts.namespace, string(id)); err != nil {
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
