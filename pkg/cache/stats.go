package cache

// RemovalCause tells a removal listener why an entry left the cache.
type RemovalCause int

const (
	// CauseExplicit means Invalidate or InvalidateAll removed the entry.
	CauseExplicit RemovalCause = iota
	// CauseReplaced means Put stored a new value for an existing key.
	CauseReplaced
	// CauseExpired means a write or access TTL elapsed.
	CauseExpired
	// CauseSize means the entry was evicted to respect the maximum size.
	CauseSize
)

func (c RemovalCause) String() string {
	switch c {
	case CauseExplicit:
		return "explicit"
	case CauseReplaced:
		return "replaced"
	case CauseExpired:
		return "expired"
	case CauseSize:
		return "size"
	default:
		return "unknown"
	}
}

// WasEvicted reports whether the removal was automatic rather than requested.
func (c RemovalCause) WasEvicted() bool {
	return c == CauseExpired || c == CauseSize
}

// RemovalListener is notified with the key, value and cause of every removal.
type RemovalListener[K comparable, V any] func(key K, value V, cause RemovalCause)

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits          int64
	Misses        int64
	LoadSuccesses int64
	LoadFailures  int64
	SizeEvictions int64
	Expirations   int64
	Explicit      int64
	Replacements  int64
}

// Evictions returns the number of automatic removals.
func (s Stats) Evictions() int64 {
	return s.SizeEvictions + s.Expirations
}

// HitRate returns hits / requests, or 1 when there were no requests.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 1
	}
	return float64(s.Hits) / float64(total)
}

func (s *Stats) record(cause RemovalCause) {
	switch cause {
	case CauseExplicit:
		s.Explicit++
	case CauseReplaced:
		s.Replacements++
	case CauseExpired:
		s.Expirations++
	case CauseSize:
		s.SizeEvictions++
	}
}
