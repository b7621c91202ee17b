package fsmbind

import (
	"context"

	"github.com/dmitrymomot/fsmbind/pkg/statemachine"
)

// Machine is the state machine instance a service binds to an entity.
// *statemachine.Machine satisfies it.
type Machine[S, E comparable] interface {
	ID() string
	Current() S
	// Reset forces the current state without running transitions.
	Reset(state S) error
	AddListener(l statemachine.Listener[S, E])
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	// Send reports whether the machine accepted the message.
	Send(ctx context.Context, msg statemachine.Message[E]) (bool, error)
}

// Factory creates a fresh, not yet started machine for every binding.
type Factory[S, E comparable] interface {
	NewMachine(id string) (Machine[S, E], error)
}

// FactoryFunc adapts a plain function to the Factory interface.
type FactoryFunc[S, E comparable] func(id string) (Machine[S, E], error)

func (f FactoryFunc[S, E]) NewMachine(id string) (Machine[S, E], error) {
	return f(id)
}

// FromStateMachine adapts a bundled engine factory.
func FromStateMachine[S, E comparable](f *statemachine.Factory[S, E]) Factory[S, E] {
	return FactoryFunc[S, E](func(id string) (Machine[S, E], error) {
		m, err := f.NewMachine(id)
		if err != nil {
			return nil, err
		}
		return m, nil
	})
}
