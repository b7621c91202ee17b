package statemachine

// Builder provides a fluent API for building state machine factories.
type Builder[S, E comparable] struct {
	initial      S
	opts         []Option[S, E]
	currentFrom  S
	currentEvent E
	currentTo    S
	guards       []Guard[S, E]
	actions      []Action[S, E]
}

// NewBuilder creates a new factory builder.
func NewBuilder[S, E comparable](initialState S) *Builder[S, E] {
	return &Builder[S, E]{initial: initialState}
}

// From sets the starting state for a transition.
func (b *Builder[S, E]) From(state S) *Builder[S, E] {
	b.reset()
	b.currentFrom = state
	return b
}

// When sets the event that triggers a transition.
func (b *Builder[S, E]) When(event E) *Builder[S, E] {
	b.currentEvent = event
	return b
}

// To sets the target state for a transition.
func (b *Builder[S, E]) To(state S) *Builder[S, E] {
	b.currentTo = state
	return b
}

// WithGuard adds a guard function to the current transition.
func (b *Builder[S, E]) WithGuard(guard Guard[S, E]) *Builder[S, E] {
	if guard != nil {
		b.guards = append(b.guards, guard)
	}
	return b
}

// WithAction adds an action function to the current transition.
func (b *Builder[S, E]) WithAction(action Action[S, E]) *Builder[S, E] {
	if action != nil {
		b.actions = append(b.actions, action)
	}
	return b
}

// Add finalizes the current transition.
func (b *Builder[S, E]) Add() *Builder[S, E] {
	b.opts = append(b.opts, WithTransitions([]TransitionDef[S, E]{{
		From:    b.currentFrom,
		To:      b.currentTo,
		Event:   b.currentEvent,
		Guards:  b.guards,
		Actions: b.actions,
	}}))
	b.reset()
	return b
}

// Option appends an arbitrary factory option, e.g. WithStates or WithLogger.
func (b *Builder[S, E]) Option(opt Option[S, E]) *Builder[S, E] {
	if opt != nil {
		b.opts = append(b.opts, opt)
	}
	return b
}

// Build returns the constructed factory.
func (b *Builder[S, E]) Build() (*Factory[S, E], error) {
	return NewFactory(b.initial, b.opts...)
}

// reset clears the current transition configuration.
func (b *Builder[S, E]) reset() {
	var zeroState S
	var zeroEvent E
	b.currentFrom = zeroState
	b.currentEvent = zeroEvent
	b.currentTo = zeroState
	b.guards = nil
	b.actions = nil
}
