package statemachine

import (
	"context"
	"maps"
)

// Action executes side effects during state transitions. Returning an error prevents the transition.
type Action[S, E comparable] func(ctx context.Context, sc *StateContext[S, E]) error

// Guard evaluates whether a transition should be allowed based on runtime conditions.
type Guard[S, E comparable] func(ctx context.Context, sc *StateContext[S, E]) bool

// Transition defines a state change triggered by an event, with optional guards and actions.
type Transition[S, E comparable] struct {
	From    S
	To      S
	Event   E
	Guards  []Guard[S, E]  // All must pass for transition to proceed
	Actions []Action[S, E] // Executed in order before state change
}

// Listener observes transitions accepted by a machine.
// Listeners are notified in registration order after the state has changed.
type Listener[S, E comparable] interface {
	OnTransition(ctx context.Context, sc *StateContext[S, E])
}

// ListenerFunc adapts a plain function to the Listener interface.
type ListenerFunc[S, E comparable] func(ctx context.Context, sc *StateContext[S, E])

func (f ListenerFunc[S, E]) OnTransition(ctx context.Context, sc *StateContext[S, E]) {
	f(ctx, sc)
}

// Message carries an event into the machine together with optional headers.
type Message[E comparable] struct {
	Event   E
	Headers map[string]any
}

// NewMessage creates a message without headers.
func NewMessage[E comparable](event E) Message[E] {
	return Message[E]{Event: event}
}

// WithHeader returns a copy of the message with the header set.
func (m Message[E]) WithHeader(name string, value any) Message[E] {
	headers := make(map[string]any, len(m.Headers)+1)
	maps.Copy(headers, m.Headers)
	headers[name] = value
	return Message[E]{Event: m.Event, Headers: headers}
}

// Header returns the header value and whether it was present.
func (m Message[E]) Header(name string) (any, bool) {
	v, ok := m.Headers[name]
	return v, ok
}

// StateContext is handed to guards, actions and listeners.
// Machine is the instance processing the message.
type StateContext[S, E comparable] struct {
	Machine *Machine[S, E]
	Message Message[E]
	From    S
	To      S
}

// Event returns the event being processed.
func (sc *StateContext[S, E]) Event() E {
	return sc.Message.Event
}

// StringState provides a simple string-based state for basic use cases.
type StringState string

func (s StringState) String() string {
	return string(s)
}

// StringEvent provides a simple string-based event for basic use cases.
type StringEvent string

func (e StringEvent) String() string {
	return string(e)
}
