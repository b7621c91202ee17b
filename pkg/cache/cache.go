package cache

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"
)

type entry[K comparable, V any] struct {
	key        K
	value      V
	writtenAt  time.Time
	accessedAt time.Time
}

// call tracks an in-flight load so concurrent callers share one loader run.
type call[V any] struct {
	done       chan struct{}
	value      V
	err        error
	generation uint64
	discarded  bool
}

// LoaderFunc produces the value for a missing key.
type LoaderFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

// LoadingCache is a thread-safe, size-bounded cache with optional write and
// access expiry and per-key load serialization.
// When the cache reaches its capacity, the least recently used item is evicted.
type LoadingCache[K comparable, V any] struct {
	maxSize           int
	expireAfterWrite  time.Duration
	expireAfterAccess time.Duration
	now               func() time.Time
	onRemoval         RemovalListener[K, V]

	mu         sync.Mutex
	items      map[K]*list.Element
	order      *list.List // front is most recently used
	loading    map[K]*call[V]
	generation uint64 // bumped by InvalidateAll to discard in-flight loads
	stats      Stats
}

// NewLoadingCache creates a cache. Without options it holds DefaultMaxSize
// entries and never expires them.
func NewLoadingCache[K comparable, V any](opts ...Option[K, V]) (*LoadingCache[K, V], error) {
	c := &LoadingCache[K, V]{
		maxSize: DefaultMaxSize,
		now:     time.Now,
		items:   make(map[K]*list.Element),
		order:   list.New(),
		loading: make(map[K]*call[V]),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.maxSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, c.maxSize)
	}

	return c, nil
}

// MustNewLoadingCache works like NewLoadingCache but panics on invalid options.
func MustNewLoadingCache[K comparable, V any](opts ...Option[K, V]) *LoadingCache[K, V] {
	c, err := NewLoadingCache(opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create cache: %v", err))
	}
	return c
}

// Get retrieves a live value and marks it as recently used.
func (c *LoadingCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.getLocked(key, c.now()); ok {
		c.stats.Hits++
		return v, true
	}

	c.stats.Misses++
	var zero V
	return zero, false
}

// Peek reports a live value without touching recency or stats.
func (c *LoadingCache[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		e := elem.Value.(*entry[K, V])
		if !c.expired(e, c.now()) {
			return e.value, true
		}
	}

	var zero V
	return zero, false
}

// GetOrLoad returns the live value for key, or runs loader to produce it.
//
// Concurrent calls for the same missing key share a single loader run; the
// others wait for it or for their own ctx to be done. A loader error (or
// panic) is returned to every waiter and nothing is stored.
func (c *LoadingCache[K, V]) GetOrLoad(ctx context.Context, key K, loader LoaderFunc[K, V]) (V, error) {
	c.mu.Lock()

	if v, ok := c.getLocked(key, c.now()); ok {
		c.stats.Hits++
		c.mu.Unlock()
		return v, nil
	}
	c.stats.Misses++

	if cl, ok := c.loading[key]; ok {
		c.mu.Unlock()
		return c.wait(ctx, cl)
	}

	cl := &call[V]{done: make(chan struct{}), generation: c.generation}
	c.loading[key] = cl
	c.mu.Unlock()

	c.load(ctx, key, loader, cl)
	return cl.value, cl.err
}

func (c *LoadingCache[K, V]) wait(ctx context.Context, cl *call[V]) (V, error) {
	select {
	case <-cl.done:
		return cl.value, cl.err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

func (c *LoadingCache[K, V]) load(ctx context.Context, key K, loader LoaderFunc[K, V], cl *call[V]) {
	defer func() {
		if r := recover(); r != nil {
			var zero V
			cl.value, cl.err = zero, fmt.Errorf("%w: %v", ErrLoaderPanic, r)
		}

		c.mu.Lock()
		delete(c.loading, key)
		if cl.err != nil {
			c.stats.LoadFailures++
		} else {
			c.stats.LoadSuccesses++
			if cl.discarded || cl.generation != c.generation {
				// Invalidated while loading: hand the value to the caller
				// but let the listener release it.
				c.notify(key, cl.value, CauseExplicit)
			} else {
				c.putLocked(key, cl.value, c.now())
			}
		}
		c.mu.Unlock()

		close(cl.done)
	}()

	cl.value, cl.err = loader(ctx, key)
}

// Put stores value under key, replacing and reporting any previous value.
func (c *LoadingCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.putLocked(key, value, c.now())
}

// Invalidate removes key. It also discards the result of an in-flight load for key.
func (c *LoadingCache[K, V]) Invalidate(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cl, ok := c.loading[key]; ok {
		cl.discarded = true
	}

	if elem, ok := c.items[key]; ok {
		e := elem.Value.(*entry[K, V])
		c.removeElement(elem, CauseExplicit)
		return e.value, true
	}

	var zero V
	return zero, false
}

// InvalidateAll removes every entry and discards the results of in-flight loads.
func (c *LoadingCache[K, V]) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		c.removeElement(elem, CauseExplicit)
		elem = prev
	}
}

// CleanUp removes every expired entry and returns how many were removed.
func (c *LoadingCache[K, V]) CleanUp() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if c.expired(elem.Value.(*entry[K, V]), now) {
			c.removeElement(elem, CauseExpired)
			removed++
		}
		elem = prev
	}
	return removed
}

// RunJanitor calls CleanUp every interval until ctx is done.
func (c *LoadingCache[K, V]) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.CleanUp()
		case <-ctx.Done():
			return
		}
	}
}

// Len returns the number of stored entries, including expired ones not yet cleaned up.
func (c *LoadingCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Keys returns the live keys, most recently used first.
func (c *LoadingCache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	keys := make([]K, 0, c.order.Len())
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		e := elem.Value.(*entry[K, V])
		if !c.expired(e, now) {
			keys = append(keys, e.key)
		}
	}
	return keys
}

// Stats returns a snapshot of the cache counters.
func (c *LoadingCache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Must be called with lock held.
func (c *LoadingCache[K, V]) getLocked(key K, now time.Time) (V, bool) {
	var zero V

	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}

	e := elem.Value.(*entry[K, V])
	if c.expired(e, now) {
		c.removeElement(elem, CauseExpired)
		return zero, false
	}

	e.accessedAt = now
	c.order.MoveToFront(elem)
	return e.value, true
}

// Must be called with lock held.
func (c *LoadingCache[K, V]) putLocked(key K, value V, now time.Time) {
	if elem, ok := c.items[key]; ok {
		e := elem.Value.(*entry[K, V])
		old := e.value
		e.value, e.writtenAt, e.accessedAt = value, now, now
		c.order.MoveToFront(elem)
		c.notify(key, old, CauseReplaced)
		return
	}

	c.items[key] = c.order.PushFront(&entry[K, V]{
		key:        key,
		value:      value,
		writtenAt:  now,
		accessedAt: now,
	})

	// The tail holds the least recently accessed entries, so expired ones
	// cluster there.
	for elem := c.order.Back(); elem != nil && c.expired(elem.Value.(*entry[K, V]), now); elem = c.order.Back() {
		c.removeElement(elem, CauseExpired)
	}

	for c.order.Len() > c.maxSize {
		c.removeElement(c.order.Back(), CauseSize)
	}
}

// Must be called with lock held.
func (c *LoadingCache[K, V]) removeElement(elem *list.Element, cause RemovalCause) {
	c.order.Remove(elem)
	e := elem.Value.(*entry[K, V])
	delete(c.items, e.key)
	c.notify(e.key, e.value, cause)
}

// Must be called with lock held.
func (c *LoadingCache[K, V]) notify(key K, value V, cause RemovalCause) {
	c.stats.record(cause)
	if c.onRemoval != nil {
		c.onRemoval(key, value, cause)
	}
}

func (c *LoadingCache[K, V]) expired(e *entry[K, V], now time.Time) bool {
	if c.expireAfterWrite > 0 && !now.Before(e.writtenAt.Add(c.expireAfterWrite)) {
		return true
	}
	if c.expireAfterAccess > 0 && !now.Before(e.accessedAt.Add(c.expireAfterAccess)) {
		return true
	}
	return false
}
