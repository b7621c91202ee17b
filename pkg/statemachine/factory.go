package statemachine

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// definition is the immutable transition table shared by all machines of a factory.
// Uses a nested map for O(1) transition lookups: [fromState][event][]Transition
type definition[S, E comparable] struct {
	initial     S
	states      map[S]struct{} // nil when the state set was not declared
	transitions map[S]map[E][]Transition[S, E]
}

func (d *definition[S, E]) addTransition(from, to S, event E, guards []Guard[S, E], actions []Action[S, E]) {
	if _, ok := d.transitions[from]; !ok {
		d.transitions[from] = make(map[E][]Transition[S, E])
	}

	// Multiple transitions allowed for same from/event to support guard-based branching
	d.transitions[from][event] = append(d.transitions[from][event], Transition[S, E]{
		From:    from,
		To:      to,
		Event:   event,
		Guards:  guards,
		Actions: actions,
	})
}

func (d *definition[S, E]) knows(state S) bool {
	if d.states == nil {
		return true
	}
	_, ok := d.states[state]
	return ok
}

func (d *definition[S, E]) validate() error {
	if !d.knows(d.initial) {
		return fmt.Errorf("%w: initial state %v", ErrUnknownState, d.initial)
	}
	for from, byEvent := range d.transitions {
		for event, ts := range byEvent {
			for _, t := range ts {
				if !d.knows(t.From) || !d.knows(t.To) {
					return fmt.Errorf("%w: %v->%v on %v", ErrInvalidTransition, from, t.To, event)
				}
			}
		}
	}
	return nil
}

// Factory produces fresh machines sharing one transition table.
// A factory is immutable once constructed and safe for concurrent use.
type Factory[S, E comparable] struct {
	def    *definition[S, E]
	logger *slog.Logger
	newID  func() string
}

// NewFactory creates a factory whose machines start in initialState.
func NewFactory[S, E comparable](initialState S, opts ...Option[S, E]) (*Factory[S, E], error) {
	f := &Factory[S, E]{
		def: &definition[S, E]{
			initial:     initialState,
			transitions: make(map[S]map[E][]Transition[S, E]),
		},
		logger: slog.Default(),
		newID:  uuid.NewString,
	}

	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}

	if err := f.def.validate(); err != nil {
		return nil, err
	}

	return f, nil
}

// MustNewFactory works like NewFactory but panics on invalid options.
func MustNewFactory[S, E comparable](initialState S, opts ...Option[S, E]) *Factory[S, E] {
	f, err := NewFactory(initialState, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine factory: %v", err))
	}
	return f
}

// NewMachine returns a fresh, not yet started machine in the initial state.
// An empty id is replaced with a generated one.
func (f *Factory[S, E]) NewMachine(id string) (*Machine[S, E], error) {
	if id == "" {
		id = f.newID()
	}
	return newMachine(id, f.def, f.logger), nil
}

// InitialState returns the state new machines start in.
func (f *Factory[S, E]) InitialState() S {
	return f.def.initial
}

// New creates a single machine with the given initial state and options.
// The returned machine must be started before it accepts events.
func New[S, E comparable](initialState S, opts ...Option[S, E]) (*Machine[S, E], error) {
	f, err := NewFactory(initialState, opts...)
	if err != nil {
		return nil, err
	}
	return f.NewMachine("")
}

// MustNew works like New but panics if any option fails to apply.
func MustNew[S, E comparable](initialState S, opts ...Option[S, E]) *Machine[S, E] {
	m, err := New(initialState, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return m
}
