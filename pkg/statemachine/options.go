package statemachine

import (
	"fmt"
	"log/slog"
)

// Option configures a factory during construction.
type Option[S, E comparable] func(*Factory[S, E]) error

// TransitionOption configures a single transition with guards and actions.
type TransitionOption[S, E comparable] func(*transitionConfig[S, E])

// TransitionDef defines a transition between states.
type TransitionDef[S, E comparable] struct {
	From    S
	To      S
	Event   E
	Guards  []Guard[S, E]
	Actions []Action[S, E]
}

type transitionConfig[S, E comparable] struct {
	guards  []Guard[S, E]
	actions []Action[S, E]
}

// WithTransition adds a single transition.
func WithTransition[S, E comparable](from, to S, event E, opts ...TransitionOption[S, E]) Option[S, E] {
	return func(f *Factory[S, E]) error {
		cfg := &transitionConfig[S, E]{}
		for _, opt := range opts {
			opt(cfg)
		}

		f.def.addTransition(from, to, event, cfg.guards, cfg.actions)
		return nil
	}
}

// WithTransitions adds multiple transitions at once.
func WithTransitions[S, E comparable](transitions []TransitionDef[S, E]) Option[S, E] {
	return func(f *Factory[S, E]) error {
		for _, t := range transitions {
			f.def.addTransition(t.From, t.To, t.Event, t.Guards, t.Actions)
		}
		return nil
	}
}

// WithStates declares the complete state set. When declared, every transition
// and every Reset must use one of these states.
func WithStates[S, E comparable](states ...S) Option[S, E] {
	return func(f *Factory[S, E]) error {
		if len(states) == 0 {
			return fmt.Errorf("%w: empty state set", ErrInvalidTransition)
		}
		if f.def.states == nil {
			f.def.states = make(map[S]struct{}, len(states))
		}
		for _, s := range states {
			f.def.states[s] = struct{}{}
		}
		return nil
	}
}

// WithLogger sets the logger handed to every machine the factory creates.
func WithLogger[S, E comparable](logger *slog.Logger) Option[S, E] {
	return func(f *Factory[S, E]) error {
		if logger != nil {
			f.logger = logger
		}
		return nil
	}
}

// WithIDGenerator overrides how identifiers are produced for machines created
// without an explicit id.
func WithIDGenerator[S, E comparable](fn func() string) Option[S, E] {
	return func(f *Factory[S, E]) error {
		if fn != nil {
			f.newID = fn
		}
		return nil
	}
}

// WithGuard adds a single guard to a transition.
func WithGuard[S, E comparable](guard Guard[S, E]) TransitionOption[S, E] {
	return func(cfg *transitionConfig[S, E]) {
		if guard != nil {
			cfg.guards = append(cfg.guards, guard)
		}
	}
}

// WithGuards adds multiple guards to a transition.
func WithGuards[S, E comparable](guards ...Guard[S, E]) TransitionOption[S, E] {
	return func(cfg *transitionConfig[S, E]) {
		for _, guard := range guards {
			if guard != nil {
				cfg.guards = append(cfg.guards, guard)
			}
		}
	}
}

// WithAction adds a single action to a transition.
func WithAction[S, E comparable](action Action[S, E]) TransitionOption[S, E] {
	return func(cfg *transitionConfig[S, E]) {
		if action != nil {
			cfg.actions = append(cfg.actions, action)
		}
	}
}

// WithActions adds multiple actions to a transition.
func WithActions[S, E comparable](actions ...Action[S, E]) TransitionOption[S, E] {
	return func(cfg *transitionConfig[S, E]) {
		for _, action := range actions {
			if action != nil {
				cfg.actions = append(cfg.actions, action)
			}
		}
	}
}
