package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// StoreOption configures a StateStore.
type StoreOption func(*storeOptions)

type storeOptions struct {
	opTimeout time.Duration
	now       func() time.Time
}

// WithOpTimeout bounds each Read and Write. Zero disables the deadline.
func WithOpTimeout(d time.Duration) StoreOption {
	return func(o *storeOptions) { o.opTimeout = d }
}

// WithClock sets the source of updated_at timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(o *storeOptions) { o.now = now }
}

type stateDocument struct {
	ID        string    `bson:"_id"`
	State     string    `bson:"state"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// StateStore keeps the state of entities identified by K, one document per
// entity. It satisfies fsmbind.Accessor[K, S].
type StateStore[K ~string, S ~string] struct {
	coll *mongo.Collection
	opts storeOptions
}

// NewStateStore creates a store over coll.
func NewStateStore[K ~string, S ~string](coll *mongo.Collection, opts ...StoreOption) *StateStore[K, S] {
	o := storeOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &StateStore[K, S]{coll: coll, opts: o}
}

// NewStateStoreFromConfig creates a store over the database and collection
// named in cfg.
func NewStateStoreFromConfig[K ~string, S ~string](client *mongo.Client, cfg Config, opts ...StoreOption) *StateStore[K, S] {
	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	return NewStateStore[K, S](coll, append([]StoreOption{WithOpTimeout(cfg.OpTimeout)}, opts...)...)
}

// Read returns the stored state. A missing document is reported as absent.
func (s *StateStore[K, S]) Read(id K) (S, bool, error) {
	var zero S
	if id == "" {
		return zero, false, ErrEmptyKey
	}

	ctx, cancel := s.context()
	defer cancel()

	var doc stateDocument
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: string(id)}}).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return zero, false, nil
	case err != nil:
		return zero, false, errors.Join(ErrReadState, err)
	}
	return S(doc.State), true, nil
}

// Write upserts the state of id.
func (s *StateStore[K, S]) Write(id K, state S) error {
	if id == "" {
		return ErrEmptyKey
	}

	ctx, cancel := s.context()
	defer cancel()

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "state", Value: string(state)},
		{Key: "updated_at", Value: s.opts.now().UTC()},
	}}}
	_, err := s.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: string(id)}}, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return errors.Join(ErrWriteState, err)
	}
	return nil
}

// Delete removes the document of id so the next Read reports it absent.
func (s *StateStore[K, S]) Delete(ctx context.Context, id K) error {
	if id == "" {
		return ErrEmptyKey
	}
	if _, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: string(id)}}); err != nil {
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
