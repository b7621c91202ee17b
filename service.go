package fsmbind

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/fsmbind/pkg/cache"
	"github.com/dmitrymomot/fsmbind/pkg/logger"
	"github.com/dmitrymomot/fsmbind/pkg/statemachine"
)

// Service binds entities of type O to state machines with states S and events E.
//
// Bindings are created lazily by SendEvent and live in a bounded cache. Each
// machine is seeded from the entity state and writes every accepted
// transition back to the entity. Distinct entities may be driven from
// parallel goroutines; events for the same entity are not serialized here.
//
// Entities are cache keys compared with ==. For pointer entities that is
// identity, so two equal structs at different addresses get separate bindings.
type Service[O comparable, S, E comparable] struct {
	factory  Factory[S, E]
	accessor Accessor[O, S]
	cfg      Config
	logger   *slog.Logger
	observer Observer[O, S, E]
	newID    func() string
	bindings *cache.LoadingCache[O, Machine[S, E]]

	mu      sync.RWMutex
	inverse map[string]O // machine id -> entity

	lifecycle sync.Mutex
	started   atomic.Bool
	stop      context.CancelFunc
	janitor   chan struct{}

	sent         atomic.Int64
	accepted     atomic.Int64
	failed       atomic.Int64
	lookupMisses atomic.Int64
}

// New creates a service whose machines come from factory.
// It fails with an ErrConfiguration error when O has no usable state field.
//
// Example:
//
//	svc, err := fsmbind.New[*Order](fsmbind.FromStateMachine(orderFlow),
//		fsmbind.WithMaxSize(1000),
//		fsmbind.WithLogger(log),
//	)
func New[O comparable, S, E comparable](factory Factory[S, E], opts ...Option) (*Service[O, S, E], error) {
	if factory == nil {
		return nil, fmt.Errorf("%w: nil factory", ErrInvalidConfig)
	}

	o := &options{
		cfg:      DefaultConfig(),
		stateTag: DefaultStateTag,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}

	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	if o.logger == nil {
		o.logger = slog.Default()
		if o.cfg.Log.Enabled() {
			// Validated above.
			o.logger, _ = logger.NewFromConfig(o.cfg.Log)
		}
	}

	s := &Service[O, S, E]{
		factory: factory,
		cfg:     o.cfg,
		logger:  o.logger.With(logger.Component("fsmbind")),
		newID:   o.newID,
		inverse: make(map[string]O),
	}

	switch a := o.accessor.(type) {
	case nil:
		fa, err := NewFieldAccessor[O, S](WithTag(o.stateTag))
		if err != nil {
			return nil, err
		}
		s.accessor = fa
	case Accessor[O, S]:
		s.accessor = a
	default:
		return nil, fmt.Errorf("%w: accessor %T does not match the entity and state types", ErrInvalidConfig, o.accessor)
	}

	switch obs := o.observer.(type) {
	case nil:
		s.observer = NoopObserver[O, S, E]{}
	case Observer[O, S, E]:
		s.observer = obs
	default:
		return nil, fmt.Errorf("%w: observer %T does not match the service types", ErrInvalidConfig, o.observer)
	}

	bindings, err := cache.NewLoadingCache(
		cache.WithMaxSize[O, Machine[S, E]](o.cfg.MaxSize),
		cache.WithExpireAfterWrite[O, Machine[S, E]](o.cfg.ExpireAfterWrite),
		cache.WithExpireAfterAccess[O, Machine[S, E]](o.cfg.ExpireAfterAccess),
		cache.WithClock[O, Machine[S, E]](o.now),
		cache.WithRemovalListener(s.onRemoval),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	s.bindings = bindings

	for _, b := range o.binders {
		if err := b.Bind(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// MustNew works like New but panics on configuration errors.
func MustNew[O comparable, S, E comparable](factory Factory[S, E], opts ...Option) *Service[O, S, E] {
	s, err := New[O](factory, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create binding service: %v", err))
	}
	return s
}

// Start makes the service accept events and, when a cleanup interval is
// configured, starts sweeping expired bindings in the background.
// Starting a running service is a no-op. A stopped service may be started again.
func (s *Service[O, S, E]) Start(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.started.Load() {
		return nil
	}

	if s.cfg.CleanupInterval > 0 {
		jctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		done := make(chan struct{})
		go func() {
			defer close(done)
			s.bindings.RunJanitor(jctx, s.cfg.CleanupInterval)
		}()
		s.stop, s.janitor = cancel, done
	}

	s.started.Store(true)
	s.logger.InfoContext(ctx, "binding service started",
		slog.Int("max_size", s.cfg.MaxSize),
		slog.Duration("expire_after_write", s.cfg.ExpireAfterWrite),
		slog.Duration("expire_after_access", s.cfg.ExpireAfterAccess),
	)
	return nil
}

// Stop rejects further events, stops the background sweep and drains the
// cache. Every drained binding has its machine stopped. The cache is drained
// even when ctx ends before the sweep exits, in which case ctx.Err() is returned.
func (s *Service[O, S, E]) Stop(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if !s.started.Load() {
		return nil
	}
	s.started.Store(false)

	var err error
	if s.stop != nil {
		s.stop()
		select {
		case <-s.janitor:
		case <-ctx.Done():
			// The janitor was cancelled and exits on its own.
			err = ctx.Err()
		}
		s.stop, s.janitor = nil, nil
	}

	drained := s.bindings.Len()
	s.bindings.InvalidateAll()

	s.logger.InfoContext(ctx, "binding service stopped", slog.Int("drained", drained))
	return err
}

// Running reports whether the service accepts events.
func (s *Service[O, S, E]) Running() bool {
	return s.started.Load()
}

// SendEvent routes event to the machine bound to entity, creating the binding
// on first use, and reports whether the machine accepted it.
//
// A missing transition or a guard rejection yields false without an error.
// It fails with ErrStateMismatch when the entity state was changed behind the
// machine's back, with ErrLoad when no machine could be bound, and with
// ErrAccess when the state attribute cannot be read. Errors from actions are
// returned unchanged.
func (s *Service[O, S, E]) SendEvent(ctx context.Context, entity O, event E) (bool, error) {
	if !s.started.Load() {
		return false, ErrNotStarted
	}

	s.sent.Add(1)
	accepted, err := s.send(ctx, entity, event)
	switch {
	case err != nil:
		s.failed.Add(1)
	case accepted:
		s.accepted.Add(1)
	}
	return accepted, err
}

// maxSendAttempts bounds how often send re-resolves a binding that was
// evicted before the event reached its machine.
const maxSendAttempts = 3

func (s *Service[O, S, E]) send(ctx context.Context, entity O, event E) (bool, error) {
	for attempt := 1; ; attempt++ {
		if !s.started.Load() {
			return false, ErrNotStarted
		}

		m, err := s.bindings.GetOrLoad(ctx, entity, s.load)
		if err != nil {
			if errors.Is(err, cache.ErrLoaderPanic) {
				err = fmt.Errorf("%w: %w", ErrLoad, err)
			}
			return false, err
		}

		// The state is checked only before submission; a concurrent writer may
		// still change the entity while the machine processes the event.
		state, ok, err := s.accessor.Read(entity)
		if err != nil {
			return false, accessError(err)
		}
		if current := m.Current(); ok && state != current {
			return false, fmt.Errorf("%w: entity is %v, machine %s is %v", ErrStateMismatch, state, m.ID(), current)
		}

		msg := statemachine.NewMessage(event)
		if name := s.cfg.EntityHeaderName; name != "" {
			msg = msg.WithHeader(name, entity)
		}

		accepted, err := m.Send(ctx, msg)
		if err != nil && attempt < maxSendAttempts && errors.Is(err, statemachine.ErrNotRunning) && !s.isBoundTo(entity, m) {
			// Evicted between lookup and submission; the event never reached the machine.
			continue
		}
		return accepted, err
	}
}

func (s *Service[O, S, E]) isBoundTo(entity O, m Machine[S, E]) bool {
	cur, ok := s.bindings.Peek(entity)
	return ok && cur.ID() == m.ID()
}

// LookupEntity returns the entity bound to m.
// It reports false when m is not bound, e.g. after its binding was evicted.
func (s *Service[O, S, E]) LookupEntity(m Machine[S, E]) (O, bool) {
	if m == nil {
		var zero O
		return zero, false
	}
	return s.lookupID(m.ID())
}

func (s *Service[O, S, E]) lookupID(id string) (O, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.inverse[id]
	return o, ok
}

// Bound reports whether entity has a live binding. It neither loads nor
// refreshes the binding.
func (s *Service[O, S, E]) Bound(entity O) bool {
	_, ok := s.bindings.Peek(entity)
	return ok
}

// Evict removes the binding of entity, stopping its machine.
// The next SendEvent reseeds a fresh machine from the entity state.
func (s *Service[O, S, E]) Evict(entity O) bool {
	_, ok := s.bindings.Invalidate(entity)
	return ok
}

// Len returns the number of bindings held, including expired ones not yet swept.
func (s *Service[O, S, E]) Len() int {
	return s.bindings.Len()
}

// Stats is a snapshot of service and cache counters.
type Stats struct {
	Cache        cache.Stats
	Bindings     int
	Sent         int64
	Accepted     int64
	Failed       int64
	LookupMisses int64
}

// Rejected returns the number of events the machines declined without error.
func (s Stats) Rejected() int64 {
	return s.Sent - s.Accepted - s.Failed
}

func (s *Service[O, S, E]) Stats() Stats {
	s.mu.RLock()
	bindings := len(s.inverse)
	s.mu.RUnlock()

	return Stats{
		Cache:        s.bindings.Stats(),
		Bindings:     bindings,
		Sent:         s.sent.Load(),
		Accepted:     s.accepted.Load(),
		Failed:       s.failed.Load(),
		LookupMisses: s.lookupMisses.Load(),
	}
}

// load creates, seeds and starts a machine for entity and registers it in the
// inverse index. Nothing is published when any step fails.
func (s *Service[O, S, E]) load(ctx context.Context, entity O) (Machine[S, E], error) {
	if !s.started.Load() {
		return nil, fmt.Errorf("%w: %w", ErrLoad, ErrNotStarted)
	}

	m, err := s.factory.NewMachine(s.newID())
	if err != nil {
		return nil, fmt.Errorf("%w: create machine: %w", ErrLoad, err)
	}
	if m == nil {
		return nil, fmt.Errorf("%w: factory returned nil machine", ErrLoad)
	}

	if err := s.seed(ctx, entity, m); err != nil {
		s.discard(ctx, m)
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	// Stop may have drained the cache while the machine was seeded.
	if !s.started.Load() {
		s.discard(ctx, m)
		return nil, fmt.Errorf("%w: %w", ErrLoad, ErrNotStarted)
	}

	id := m.ID()
	s.mu.Lock()
	s.inverse[id] = entity
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.mu.Lock()
			delete(s.inverse, id)
			s.mu.Unlock()
			s.discard(ctx, m)
			panic(r)
		}
	}()
	s.observer.OnBind(ctx, entity, id, m.Current())
	return m, nil
}

// discard stops a machine that never made it into the cache.
func (s *Service[O, S, E]) discard(ctx context.Context, m Machine[S, E]) {
	if err := m.Stop(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to stop discarded state machine",
			logger.MachineID(m.ID()),
			logger.Error(err),
		)
	}
}

func (s *Service[O, S, E]) seed(ctx context.Context, entity O, m Machine[S, E]) error {
	state, ok, err := s.accessor.Read(entity)
	if err != nil {
		return accessError(err)
	}

	if ok {
		if err := m.Reset(state); err != nil {
			return fmt.Errorf("reset to %v: %w", state, err)
		}
	}

	// Registered first so the entity is updated before any other listener runs.
	m.AddListener(&entityListener[O, S, E]{entity: entity, svc: s})

	if err := m.Start(ctx); err != nil {
		return fmt.Errorf("start machine: %w", err)
	}
	return nil
}

// onRemoval runs under the cache lock, so the inverse entry disappears
// together with the forward one.
func (s *Service[O, S, E]) onRemoval(entity O, m Machine[S, E], cause cache.RemovalCause) {
	id := m.ID()

	s.mu.Lock()
	delete(s.inverse, id)
	s.mu.Unlock()

	if err := m.Stop(context.Background()); err != nil {
		s.logger.Warn("failed to stop evicted state machine",
			logger.MachineID(id),
			logger.Error(err),
		)
	}

	s.observer.OnEvict(entity, id, cause)
}

// resolve finds the entity an action or guard runs for. The inverse index is
// consulted first, then the entity header of the message.
func (s *Service[O, S, E]) resolve(ctx context.Context, sc *statemachine.StateContext[S, E]) (O, error) {
	var zero O

	if sc == nil || sc.Machine == nil {
		return zero, s.lookupMiss(ctx, "", fmt.Errorf("%w: missing state context", ErrNoBinding))
	}

	id := sc.Machine.ID()
	if o, ok := s.lookupID(id); ok {
		return o, nil
	}

	if name := s.cfg.EntityHeaderName; name != "" {
		if v, ok := sc.Message.Header(name); ok {
			if o, ok := v.(O); ok {
				return o, nil
			}
		}
	}

	return zero, s.lookupMiss(ctx, id, fmt.Errorf("%w: machine %s", ErrNoBinding, id))
}

func (s *Service[O, S, E]) lookupMiss(ctx context.Context, id string, err error) error {
	s.lookupMisses.Add(1)
	s.logger.WarnContext(ctx, "no entity bound to state machine",
		logger.MachineID(id),
		logger.Error(err),
	)
	s.observer.OnLookupMiss(ctx, id, err)
	return err
}
