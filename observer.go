package fsmbind

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/fsmbind/pkg/cache"
	"github.com/dmitrymomot/fsmbind/pkg/logger"
)

// Observer receives callbacks from the service for logging and metrics.
//
// Implementations must be fast and must not call back into the service:
// OnEvict runs while the binding cache is locked.
type Observer[O comparable, S, E comparable] interface {
	// OnBind is called after a machine was created, seeded and started for entity.
	OnBind(ctx context.Context, entity O, machineID string, state S)

	// OnEvict is called when a binding leaves the cache for any reason.
	OnEvict(entity O, machineID string, cause cache.RemovalCause)

	// OnTransition is called after the new state was written to the entity.
	OnTransition(ctx context.Context, entity O, machineID string, from, to S, event E)

	// OnWriteFailure is called when the new state could not be written to the entity.
	OnWriteFailure(ctx context.Context, entity O, state S, err error)

	// OnLookupMiss is called when an action or guard runs on a machine with no bound entity.
	OnLookupMiss(ctx context.Context, machineID string, err error)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver[O comparable, S, E comparable] struct{}

func (NoopObserver[O, S, E]) OnBind(context.Context, O, string, S)             {}
func (NoopObserver[O, S, E]) OnEvict(O, string, cache.RemovalCause)            {}
func (NoopObserver[O, S, E]) OnTransition(context.Context, O, string, S, S, E) {}
func (NoopObserver[O, S, E]) OnWriteFailure(context.Context, O, S, error)      {}
func (NoopObserver[O, S, E]) OnLookupMiss(context.Context, string, error)      {}

// CompositeObserver fans out callbacks to multiple observers.
type CompositeObserver[O comparable, S, E comparable] struct {
	observers []Observer[O, S, E]
}

// NewCompositeObserver creates an Observer that forwards callbacks to each
// non-nil observer in obs.
func NewCompositeObserver[O comparable, S, E comparable](obs ...Observer[O, S, E]) Observer[O, S, E] {
	filtered := make([]Observer[O, S, E], 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	switch len(filtered) {
	case 0:
		return NoopObserver[O, S, E]{}
	case 1:
		return filtered[0]
	}
	return &CompositeObserver[O, S, E]{observers: filtered}
}

func (c *CompositeObserver[O, S, E]) OnBind(ctx context.Context, entity O, machineID string, state S) {
	for _, o := range c.observers {
		o.OnBind(ctx, entity, machineID, state)
	}
}

func (c *CompositeObserver[O, S, E]) OnEvict(entity O, machineID string, cause cache.RemovalCause) {
	for _, o := range c.observers {
		o.OnEvict(entity, machineID, cause)
	}
}

func (c *CompositeObserver[O, S, E]) OnTransition(ctx context.Context, entity O, machineID string, from, to S, event E) {
	for _, o := range c.observers {
		o.OnTransition(ctx, entity, machineID, from, to, event)
	}
}

func (c *CompositeObserver[O, S, E]) OnWriteFailure(ctx context.Context, entity O, state S, err error) {
	for _, o := range c.observers {
		o.OnWriteFailure(ctx, entity, state, err)
	}
}

func (c *CompositeObserver[O, S, E]) OnLookupMiss(ctx context.Context, machineID string, err error) {
	for _, o := range c.observers {
		o.OnLookupMiss(ctx, machineID, err)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver[O comparable, S, E comparable] struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs binding lifecycle events.
// If log is nil, slog.Default() is used.
func NewLoggingObserver[O comparable, S, E comparable](log *slog.Logger) Observer[O, S, E] {
	if log == nil {
		log = slog.Default()
	}
	return &LoggingObserver[O, S, E]{Logger: log}
}

func (o *LoggingObserver[O, S, E]) OnBind(ctx context.Context, entity O, machineID string, state S) {
	o.Logger.DebugContext(ctx, "binding created",
		logger.Entity(entity),
		logger.MachineID(machineID),
		logger.State(state),
	)
}

func (o *LoggingObserver[O, S, E]) OnEvict(entity O, machineID string, cause cache.RemovalCause) {
	o.Logger.Debug("binding removed",
		logger.Entity(entity),
		logger.MachineID(machineID),
		logger.Cause(cause),
	)
}

func (o *LoggingObserver[O, S, E]) OnTransition(ctx context.Context, entity O, machineID string, from, to S, event E) {
	o.Logger.DebugContext(ctx, "entity state updated",
		logger.Entity(entity),
		logger.MachineID(machineID),
		logger.Event(event),
		slog.Any("from", from),
		slog.Any("to", to),
	)
}

func (o *LoggingObserver[O, S, E]) OnWriteFailure(ctx context.Context, entity O, state S, err error) {
	o.Logger.WarnContext(ctx, "failed to write entity state",
		logger.Entity(entity),
		logger.State(state),
		logger.Error(err),
	)
}

func (o *LoggingObserver[O, S, E]) OnLookupMiss(ctx context.Context, machineID string, err error) {
	o.Logger.WarnContext(ctx, "no entity bound to state machine",
		logger.MachineID(machineID),
		logger.Error(err),
	)
}
