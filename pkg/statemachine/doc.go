// Package statemachine provides a generic, concurrency-safe finite state
// machine engine that can be instantiated many times from one definition.
//
// A Factory holds an immutable transition table keyed by comparable state and
// event types. Each call to NewMachine returns an independent Machine that
// carries its own identifier, current state and listeners:
//  1. Transition lookup in O(1) via map[From][Event][]Transition
//  2. Optional Guard evaluation to accept or reject transitions
//  3. Execution of side-effect Actions before the state changes
//  4. Listener notification after the state has changed
//
// StringState and StringEvent cover simple string-based machines; any
// comparable type, such as an int enum, works as well.
//
// # Usage
//
//	const (
//	    Draft    = statemachine.StringState("draft")
//	    InReview = statemachine.StringState("in_review")
//	    Submit   = statemachine.StringEvent("submit")
//	)
//
//	factory := statemachine.MustNewFactory(Draft,
//	    statemachine.WithTransition(Draft, InReview, Submit),
//	)
//
//	m, _ := factory.NewMachine("") // generated UUID
//	_ = m.Start(ctx)
//	accepted, err := m.Send(ctx, statemachine.NewMessage(Submit))
//
// # Lifecycle
//
// Machines are created stopped. Reset may seed any state before Start; Fire
// and Send return ErrNotRunning until Start is called and after Stop.
//
// # Guards, Actions and Listeners
//
// Guards and actions receive a *StateContext exposing the machine, the message
// (event plus headers) and the source and target states:
//
//	isOwner := func(ctx context.Context, sc *statemachine.StateContext[State, Event]) bool {
//	    role, _ := sc.Message.Header("role")
//	    return role == "owner"
//	}
//
// Listeners registered with AddListener observe every accepted transition in
// registration order, once the new state is visible through Current.
//
// # Error Handling
//
// Fire reports a declined event as *NotAcceptedError, which matches
// ErrNotAccepted and carries the Reason:
//
//	if errors.Is(err, statemachine.ErrNotAccepted) { /* declined */ }
//	if statemachine.IsTransitionRejectedError(err) { /* guards vetoed */ }
//
// Send folds both cases into a false result and only returns real failures,
// such as an action error or ErrNotRunning.
//
// # Concurrency
//
// Event processing is serialized per machine. Reads (Current, Running,
// CanFire) use a separate RWMutex and stay available to guards, actions and
// listeners while an event is in flight.
package statemachine
