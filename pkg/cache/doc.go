// Package cache provides a generic, thread-safe loading cache with LRU
// eviction, optional write and access expiry, and removal notifications.
//
// The cache bounds memory by evicting the least recently used entry once it
// holds more than its configured maximum size. Entries may additionally expire
// a fixed time after they were written or last accessed. Every removal,
// whatever its cause, is reported to an optional removal listener so owners
// can release resources tied to the evicted value.
//
// # Usage
//
//	c := cache.MustNewLoadingCache(
//		cache.WithMaxSize[string, *Session](1000),
//		cache.WithExpireAfterAccess[string, *Session](10*time.Minute),
//		cache.WithRemovalListener(func(key string, s *Session, cause cache.RemovalCause) {
//			s.Close()
//		}),
//	)
//
//	s, err := c.GetOrLoad(ctx, "user:123", func(ctx context.Context, key string) (*Session, error) {
//		return openSession(ctx, key)
//	})
//
// # Loading
//
// GetOrLoad runs the loader at most once per missing key at a time. Concurrent
// callers for the same key wait for the in-flight load and receive its result,
// or return early with ctx.Err() when their own context is done. Loader errors
// and recovered panics (wrapped in ErrLoaderPanic) are returned to every
// waiter and nothing is stored. If the key is invalidated while the loader
// runs, the loaded value is returned to the callers but not stored, and the
// removal listener receives it with CauseExplicit.
//
// # Expiry
//
// Expired entries are removed lazily on access, from the LRU tail on every
// insert, and in full by CleanUp. RunJanitor calls CleanUp periodically:
//
//	go c.RunJanitor(ctx, time.Minute)
//
// Time is read from the clock given with WithClock, which defaults to time.Now.
//
// # Removal Listener
//
// The listener runs synchronously while the cache lock is held, so its view is
// consistent with the cache contents. It must be quick and must not call back
// into the cache.
package cache
