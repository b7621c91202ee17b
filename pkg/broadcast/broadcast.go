package broadcast

import (
	"context"
	"sync"
	"sync/atomic"
)

// Message wraps data of type T for type-safe broadcasting.
type Message[T any] struct {
	Data T
}

// Subscriber receives messages from a Broadcaster.
// Implementations must be safe for concurrent use.
type Subscriber[T any] interface {
	// Receive returns the channel messages are delivered on. It is closed
	// when the subscriber or its broadcaster is closed.
	Receive() <-chan Message[T]

	// Dropped returns how many messages were discarded because the buffer was full.
	Dropped() int64

	// Close releases the subscription. It is idempotent.
	Close() error
}

// Broadcaster sends messages to multiple subscribers.
type Broadcaster[T any] interface {
	// Subscribe registers a subscriber that lives until it is closed or ctx is done.
	Subscribe(ctx context.Context) Subscriber[T]

	// Broadcast delivers msg to every subscriber without blocking.
	// Subscribers with a full buffer miss the message.
	Broadcast(msg Message[T]) error

	// Close closes every subscriber. Later broadcasts return ErrClosed.
	Close() error
}

type subscriber[T any] struct {
	ch      chan Message[T]
	dropped atomic.Int64
	onClose func(*subscriber[T])

	mu     sync.RWMutex
	closed bool
}

func newSubscriber[T any](bufferSize int, onClose func(*subscriber[T])) *subscriber[T] {
	return &subscriber[T]{
		ch:      make(chan Message[T], bufferSize),
		onClose: onClose,
	}
}

func (s *subscriber[T]) Receive() <-chan Message[T] {
	return s.ch
}

func (s *subscriber[T]) Dropped() int64 {
	return s.dropped.Load()
}

func (s *subscriber[T]) Close() error {
	if s.shutdown() && s.onClose != nil {
		s.onClose(s)
	}
	return nil
}

// shutdown closes the channel and reports whether this call did it.
func (s *subscriber[T]) shutdown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	s.closed = true
	close(s.ch)
	return true
}

func (s *subscriber[T]) send(msg Message[T]) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return
	}

	select {
	case s.ch <- msg:
	default:
		s.dropped.Add(1)
	}
}
