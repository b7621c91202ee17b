package cache

import "time"

// DefaultMaxSize is the capacity used when WithMaxSize is not given.
const DefaultMaxSize = 100

// Option configures a LoadingCache.
type Option[K comparable, V any] func(*LoadingCache[K, V])

// WithMaxSize bounds the number of entries. Must be positive.
func WithMaxSize[K comparable, V any](size int) Option[K, V] {
	return func(c *LoadingCache[K, V]) {
		c.maxSize = size
	}
}

// WithExpireAfterWrite expires entries d after they were created or replaced.
// Non-positive durations disable write expiry.
func WithExpireAfterWrite[K comparable, V any](d time.Duration) Option[K, V] {
	return func(c *LoadingCache[K, V]) {
		c.expireAfterWrite = d
	}
}

// WithExpireAfterAccess expires entries d after their last read or write.
// Non-positive durations disable access expiry.
func WithExpireAfterAccess[K comparable, V any](d time.Duration) Option[K, V] {
	return func(c *LoadingCache[K, V]) {
		c.expireAfterAccess = d
	}
}

// WithRemovalListener registers a callback invoked for every removed entry.
// It runs while the cache lock is held and must not call back into the cache.
func WithRemovalListener[K comparable, V any](fn RemovalListener[K, V]) Option[K, V] {
	return func(c *LoadingCache[K, V]) {
		c.onRemoval = fn
	}
}

// WithClock overrides the time source used for expiry, e.g. a fake clock in tests.
func WithClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(c *LoadingCache[K, V]) {
		if now != nil {
			c.now = now
		}
	}
}
