package fsmbind

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/dmitrymomot/fsmbind/pkg/logger"
	"github.com/dmitrymomot/fsmbind/pkg/statemachine"
)

// Binder is implemented by components that need the service injected when
// it is constructed. See WithAdapters.
type Binder interface {
	Bind(svc any) error
}

// EntityAction is an action body that receives the bound entity.
type EntityAction[O comparable, S, E comparable] func(ctx context.Context, entity O, sc *statemachine.StateContext[S, E]) error

// EntityGuard is a guard body that receives the bound entity.
type EntityGuard[O comparable, S, E comparable] func(ctx context.Context, entity O, sc *statemachine.StateContext[S, E]) bool

// ActionAdapter turns an EntityAction into a statemachine.Action.
// When no entity is bound to the machine the action is skipped.
type ActionAdapter[O comparable, S, E comparable] struct {
	fn  EntityAction[O, S, E]
	svc atomic.Pointer[Service[O, S, E]]
}

// NewAction wraps fn. Register the adapter's Execute method on the machine
// definition and pass the adapter to WithAdapters.
//
// Example:
//
//	charge := fsmbind.NewAction(func(ctx context.Context, o *Order, sc *statemachine.StateContext[OrderState, OrderEvent]) error {
//		return payments.Charge(ctx, o.ID, o.Total)
//	})
//	flow := statemachine.MustNewFactory(Created,
//		statemachine.WithTransition(Created, Paid, Pay, statemachine.WithAction(charge.Execute)),
//	)
//	svc, err := fsmbind.New[*Order](fsmbind.FromStateMachine(flow), fsmbind.WithAdapters(charge))
func NewAction[O comparable, S, E comparable](fn EntityAction[O, S, E]) *ActionAdapter[O, S, E] {
	return &ActionAdapter[O, S, E]{fn: fn}
}

// Bind injects the service. svc must be a *Service with matching type parameters.
func (a *ActionAdapter[O, S, E]) Bind(svc any) error {
	s, err := bindService[O, S, E](svc)
	if err != nil {
		return err
	}
	a.svc.Store(s)
	return nil
}

// Execute resolves the entity and runs the wrapped action.
func (a *ActionAdapter[O, S, E]) Execute(ctx context.Context, sc *statemachine.StateContext[S, E]) error {
	entity, err := resolveEntity(ctx, a.svc.Load(), sc)
	if err != nil {
		return nil
	}
	return a.fn(ctx, entity, sc)
}

// GuardAdapter turns an EntityGuard into a statemachine.Guard.
// When no entity is bound to the machine the guard rejects the transition.
type GuardAdapter[O comparable, S, E comparable] struct {
	fn  EntityGuard[O, S, E]
	svc atomic.Pointer[Service[O, S, E]]
}

// NewGuard wraps fn. Register the adapter's Evaluate method on the machine
// definition and pass the adapter to WithAdapters.
func NewGuard[O comparable, S, E comparable](fn EntityGuard[O, S, E]) *GuardAdapter[O, S, E] {
	return &GuardAdapter[O, S, E]{fn: fn}
}

// Bind injects the service. svc must be a *Service with matching type parameters.
func (g *GuardAdapter[O, S, E]) Bind(svc any) error {
	s, err := bindService[O, S, E](svc)
	if err != nil {
		return err
	}
	g.svc.Store(s)
	return nil
}

// Evaluate resolves the entity and runs the wrapped guard.
func (g *GuardAdapter[O, S, E]) Evaluate(ctx context.Context, sc *statemachine.StateContext[S, E]) bool {
	entity, err := resolveEntity(ctx, g.svc.Load(), sc)
	if err != nil {
		return false
	}
	return g.fn(ctx, entity, sc)
}

func bindService[O comparable, S, E comparable](svc any) (*Service[O, S, E], error) {
	s, ok := svc.(*Service[O, S, E])
	if !ok || s == nil {
		return nil, fmt.Errorf("%w: cannot bind adapter to %T", ErrInvalidConfig, svc)
	}
	return s, nil
}

func resolveEntity[O comparable, S, E comparable](ctx context.Context, svc *Service[O, S, E], sc *statemachine.StateContext[S, E]) (O, error) {
	if svc == nil {
		var zero O
		err := fmt.Errorf("%w: adapter is not bound to a service", ErrNoBinding)
		slog.Default().WarnContext(ctx, "state machine adapter used before binding", logger.Error(err))
		return zero, err
	}
	return svc.resolve(ctx, sc)
}
