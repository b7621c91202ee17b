// Package fsmbind binds domain entities to finite state machines.
//
// For every entity it drives, a Service materializes a state machine seeded
// from the entity's current state, routes events to it, and mirrors each
// accepted transition back onto the entity's state field. Actions and guards
// get the originating entity back through adapters.
//
// Key Features:
//
//   - Generic over entity, state and event types
//   - State field discovered from a struct tag, including promoted and unexported fields
//   - Bounded binding cache with LRU eviction and write/access expiry
//   - One machine per entity, created once even under concurrent first use
//   - Consistency check rejecting events for entities changed behind the machine
//   - Observer hooks and structured logging via log/slog
//
// Basic Usage:
//
//	type OrderState string
//	type OrderEvent string
//
//	type Order struct {
//		ID    string
//		State OrderState `fsm:"state"`
//	}
//
//	flow := statemachine.MustNewFactory(Created,
//		statemachine.WithTransition(Created, Paid, Pay),
//		statemachine.WithTransition(Paid, Shipped, Ship),
//	)
//
//	svc, err := fsmbind.New[*Order](fsmbind.FromStateMachine(flow))
//	if err != nil {
//		return err
//	}
//	if err := svc.Start(ctx); err != nil {
//		return err
//	}
//	defer svc.Stop(ctx)
//
//	accepted, err := svc.SendEvent(ctx, order, Pay) // order.State is now Paid
//
// State Field:
//
// Exactly one field of the entity struct must carry the `fsm:"state"` tag. Its
// type is either the state type S or *S, where nil means "no state yet". A value
// field always holds a state, so iota enums work as expected; tag it
// `fsm:"state,omitzero"` to treat the zero value as "no state yet" instead. An
// entity without state keeps the machine's initial state. Tagging the field `fsm:"state,readonly"` is a configuration error,
// as are missing or duplicate tags and fields of another type. Entities that
// do not fit this shape can supply their own Accessor with WithAccessor.
//
// Consistency:
//
// Before each event the entity state is compared with the machine state; a
// mismatch fails with ErrStateMismatch and the event is not submitted. The
// comparison happens only before submission. Callers that mutate the same
// entity concurrently must serialize those writes themselves.
//
// Entities are compared with ==. With pointer entities that is identity;
// two distinct pointers to equal structs are bound separately.
//
// Actions and Guards:
//
// NewAction and NewGuard wrap entity-aware functions. The service is injected
// with WithAdapters:
//
//	notify := fsmbind.NewAction(func(ctx context.Context, o *Order, sc *statemachine.StateContext[OrderState, OrderEvent]) error {
//		return mailer.OrderPaid(ctx, o.ID)
//	})
//
// When the machine has no bound entity, for example because its binding was
// evicted mid-event, the entity is taken from the message header named by
// Config.EntityHeaderName. If that fails too, the action is skipped, the
// guard rejects, and the miss is logged and reported as ErrNoBinding.
//
// Configuration:
//
// Config can be loaded from FSMBIND_* environment variables with LoadConfig
// and passed with WithConfig. Individual options such as WithMaxSize override
// single settings.
package fsmbind
