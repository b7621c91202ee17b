package fsmbind_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fsmbind"
	"github.com/dmitrymomot/fsmbind/pkg/logger"
	"github.com/dmitrymomot/fsmbind/pkg/statemachine"
)

type State string

type Event string

const (
	S1 State = "S1"
	S2 State = "S2"

	E1 Event = "E1"
	E2 Event = "E2"
)

type Doc struct {
	ID       int
	State    State `fsm:"state,omitzero"`
	Approved bool
}

// Phase is an iota enum: its first state is the zero value.
type Phase int

type PhaseEvent int

const (
	PhaseOpen Phase = iota
	PhaseClosed
)

const (
	Close PhaseEvent = iota
	Reopen
)

type Phased struct {
	ID    int
	Phase Phase `fsm:"state"`
}

type (
	SC      = statemachine.StateContext[State, Event]
	DocSvc  = fsmbind.Service[*Doc, State, Event]
	Machine = fsmbind.Machine[State, Event]
)

// twoStateFlow is S1 -E1-> S2, S2 -E2-> S1.
func twoStateFlow(t *testing.T, opts ...statemachine.TransitionOption[State, Event]) *statemachine.Factory[State, Event] {
	t.Helper()
	f, err := statemachine.NewFactory(S1,
		statemachine.WithStates[State, Event](S1, S2),
		statemachine.WithLogger[State, Event](logger.Nop()),
		statemachine.WithTransition(S1, S2, E1, opts...),
		statemachine.WithTransition(S2, S1, E2),
	)
	require.NoError(t, err)
	return f
}

// recordingFactory remembers every machine it created.
type recordingFactory struct {
	inner *statemachine.Factory[State, Event]

	mu       sync.Mutex
	machines []*statemachine.Machine[State, Event]
}

func (f *recordingFactory) NewMachine(id string) (Machine, error) {
	m, err := f.inner.NewMachine(id)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.machines = append(f.machines, m)
	f.mu.Unlock()
	return m, nil
}

func (f *recordingFactory) created() []*statemachine.Machine[State, Event] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*statemachine.Machine[State, Event](nil), f.machines...)
}

func newRecordingFactory(t *testing.T, opts ...statemachine.TransitionOption[State, Event]) *recordingFactory {
	return &recordingFactory{inner: twoStateFlow(t, opts...)}
}

// startService creates and starts a service that is stopped on cleanup.
func startService(t *testing.T, factory fsmbind.Factory[State, Event], opts ...fsmbind.Option) *DocSvc {
	t.Helper()
	opts = append([]fsmbind.Option{
		fsmbind.WithLogger(logger.Nop()),
		fsmbind.WithCleanupInterval(0),
	}, opts...)

	svc, err := fsmbind.New[*Doc](factory, opts...)
	require.NoError(t, err)
	require.NoError(t, svc.Start(context.Background()))
	t.Cleanup(func() { _ = svc.Stop(context.Background()) })
	return svc
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
