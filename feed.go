package fsmbind

import (
	"context"

	"github.com/dmitrymomot/fsmbind/pkg/broadcast"
	"github.com/dmitrymomot/fsmbind/pkg/cache"
)

// EventKind tells what happened to a binding.
type EventKind string

const (
	EventBound        EventKind = "bound"
	EventEvicted      EventKind = "evicted"
	EventTransitioned EventKind = "transitioned"
	EventWriteFailed  EventKind = "write_failed"
	EventLookupMissed EventKind = "lookup_missed"
)

// BindingEvent describes a single binding lifecycle callback.
// Fields that do not apply to the kind are zero.
type BindingEvent[O comparable, S, E comparable] struct {
	Kind      EventKind
	Entity    O
	MachineID string
	From      S
	To        S
	Event     E
	Cause     cache.RemovalCause
	Err       error
}

// BroadcastObserver publishes every callback as a BindingEvent.
// Publishing never blocks; slow subscribers miss events.
type BroadcastObserver[O comparable, S, E comparable] struct {
	b broadcast.Broadcaster[BindingEvent[O, S, E]]
}

// NewBroadcastObserver creates an Observer publishing to b.
//
// Example:
//
//	feed := broadcast.NewMemoryBroadcaster[fsmbind.BindingEvent[*Order, OrderState, OrderEvent]](64)
//	obs := fsmbind.NewBroadcastObserver[*Order, OrderState, OrderEvent](feed)
//	svc, err := fsmbind.New[*Order](factory, fsmbind.WithObserver(obs))
//
//	sub := feed.Subscribe(ctx)
//	for msg := range sub.Receive() {
//		log.Println(msg.Data.Kind, msg.Data.MachineID)
//	}
func NewBroadcastObserver[O comparable, S, E comparable](b broadcast.Broadcaster[BindingEvent[O, S, E]]) Observer[O, S, E] {
	return &BroadcastObserver[O, S, E]{b: b}
}

func (o *BroadcastObserver[O, S, E]) OnBind(_ context.Context, entity O, machineID string, state S) {
	o.publish(BindingEvent[O, S, E]{Kind: EventBound, Entity: entity, MachineID: machineID, To: state})
}

func (o *BroadcastObserver[O, S, E]) OnEvict(entity O, machineID string, cause cache.RemovalCause) {
	o.publish(BindingEvent[O, S, E]{Kind: EventEvicted, Entity: entity, MachineID: machineID, Cause: cause})
}

func (o *BroadcastObserver[O, S, E]) OnTransition(_ context.Context, entity O, machineID string, from, to S, event E) {
	o.publish(BindingEvent[O, S, E]{Kind: EventTransitioned, Entity: entity, MachineID: machineID, From: from, To: to, Event: event})
}

func (o *BroadcastObserver[O, S, E]) OnWriteFailure(_ context.Context, entity O, state S, err error) {
	o.publish(BindingEvent[O, S, E]{Kind: EventWriteFailed, Entity: entity, To: state, Err: err})
}

func (o *BroadcastObserver[O, S, E]) OnLookupMiss(_ context.Context, machineID string, err error) {
	o.publish(BindingEvent[O, S, E]{Kind: EventLookupMissed, MachineID: machineID, Err: err})
}

func (o *BroadcastObserver[O, S, E]) publish(ev BindingEvent[O, S, E]) {
	// A closed feed only means nobody listens anymore.
	_ = o.b.Broadcast(broadcast.Message[BindingEvent[O, S, E]]{Data: ev})
}
