package statemachine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/dmitrymomot/fsmbind/pkg/logger"
)

// Machine is a thread-safe in-memory state machine instance.
//
// Event processing is serialized by a dispatch lock that is separate from the
// state lock, so guards, actions and listeners may call Current and Running
// while an event is in flight. They must not call Fire, Send or Reset on the
// same machine.
type Machine[S, E comparable] struct {
	id     string
	def    *definition[S, E]
	logger *slog.Logger

	mu        sync.RWMutex
	current   S
	running   bool
	listeners []Listener[S, E]

	fireMu sync.Mutex
}

func newMachine[S, E comparable](id string, def *definition[S, E], log *slog.Logger) *Machine[S, E] {
	return &Machine[S, E]{
		id:      id,
		def:     def,
		logger:  log.With(logger.MachineID(id)),
		current: def.initial,
	}
}

// ID returns the identifier the machine was created with.
func (m *Machine[S, E]) ID() string {
	return m.id
}

func (m *Machine[S, E]) Current() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *Machine[S, E]) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// Start makes the machine accept events. Starting a running machine is a no-op.
func (m *Machine[S, E]) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}
	m.running = true
	m.logger.DebugContext(ctx, "state machine started", logger.State(m.current))
	return nil
}

// Stop makes the machine reject further events. It does not wait for an
// event that is already being processed.
func (m *Machine[S, E]) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return nil
	}
	m.running = false
	m.logger.DebugContext(ctx, "state machine stopped", logger.State(m.current))
	return nil
}

// Reset forces the current state without running guards, actions or listeners.
func (m *Machine[S, E]) Reset(state S) error {
	if !m.def.knows(state) {
		return fmt.Errorf("%w: %v", ErrUnknownState, state)
	}

	m.fireMu.Lock()
	defer m.fireMu.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = state
	return nil
}

// AddListener registers a listener notified after each accepted transition.
func (m *Machine[S, E]) AddListener(l Listener[S, E]) {
	if l == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, l)
}

// Fire processes the message. It returns a *NotAcceptedError when no
// transition is defined or every guard vetoed, and the wrapped action error
// when an action failed.
func (m *Machine[S, E]) Fire(ctx context.Context, msg Message[E]) error {
	m.fireMu.Lock()
	defer m.fireMu.Unlock()

	m.mu.RLock()
	from, running := m.current, m.running
	m.mu.RUnlock()

	if !running {
		return ErrNotRunning
	}

	transitions := m.def.transitions[from][msg.Event]
	if len(transitions) == 0 {
		return &NotAcceptedError{MachineID: m.id, State: from, Event: msg.Event, Reason: ReasonNoTransition}
	}

	// First transition with passing guards wins (enables priority ordering)
	var chosen *StateContext[S, E]
	var actions []Action[S, E]
	for _, t := range transitions {
		sc := &StateContext[S, E]{Machine: m, Message: msg, From: from, To: t.To}
		if guardsPass(ctx, t.Guards, sc) {
			chosen, actions = sc, t.Actions
			break
		}
	}

	if chosen == nil {
		return &NotAcceptedError{MachineID: m.id, State: from, Event: msg.Event, Reason: ReasonRejected}
	}

	// Execute actions before state change; any failure aborts transition
	for _, action := range actions {
		if err := action(ctx, chosen); err != nil {
			return fmt.Errorf("action failed: %w", err)
		}
	}

	m.mu.Lock()
	m.current = chosen.To
	listeners := slices.Clone(m.listeners)
	m.mu.Unlock()

	m.logger.DebugContext(ctx, "transition",
		logger.Event(msg.Event),
		slog.Any("from", chosen.From),
		slog.Any("to", chosen.To),
	)

	for _, l := range listeners {
		l.OnTransition(ctx, chosen)
	}

	return nil
}

// Send processes the message and reports whether it was accepted.
// Missing transitions and guard rejections yield false without an error.
func (m *Machine[S, E]) Send(ctx context.Context, msg Message[E]) (bool, error) {
	err := m.Fire(ctx, msg)
	switch {
	case err == nil:
		return true, nil
	case IsNotAcceptedError(err):
		return false, nil
	default:
		return false, err
	}
}

// CanFire reports whether the message would be accepted in the current state.
// Guards are evaluated, actions are not.
func (m *Machine[S, E]) CanFire(ctx context.Context, msg Message[E]) bool {
	m.mu.RLock()
	from, running := m.current, m.running
	m.mu.RUnlock()

	if !running {
		return false
	}

	for _, t := range m.def.transitions[from][msg.Event] {
		sc := &StateContext[S, E]{Machine: m, Message: msg, From: from, To: t.To}
		if guardsPass(ctx, t.Guards, sc) {
			return true
		}
	}

	return false
}

func guardsPass[S, E comparable](ctx context.Context, guards []Guard[S, E], sc *StateContext[S, E]) bool {
	for _, guard := range guards {
		if !guard(ctx, sc) {
			return false
		}
	}
	return true
}
