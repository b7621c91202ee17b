package broadcast

import (
	"context"
	"sync"
)

// MemoryBroadcaster fans messages out to in-process subscribers.
// Broadcast never blocks: a subscriber whose buffer is full misses the
// message and stays subscribed. All methods are safe for concurrent use.
type MemoryBroadcaster[T any] struct {
	bufferSize int

	mu          sync.RWMutex
	subscribers map[*subscriber[T]]struct{}
	closed      bool
}

// NewMemoryBroadcaster creates a broadcaster whose subscribers buffer up to
// bufferSize messages. A minimum buffer size of 1 is enforced.
func NewMemoryBroadcaster[T any](bufferSize int) *MemoryBroadcaster[T] {
	return &MemoryBroadcaster[T]{
		bufferSize:  max(bufferSize, 1),
		subscribers: make(map[*subscriber[T]]struct{}),
	}
}

// Subscribe registers a subscriber. If the broadcaster is closed the returned
// subscriber is already closed.
func (b *MemoryBroadcaster[T]) Subscribe(ctx context.Context) Subscriber[T] {
	sub := newSubscriber(b.bufferSize, b.remove)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		sub.shutdown()
		return sub
	}
	b.subscribers[sub] = struct{}{}

	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			_ = sub.Close()
		}()
	}

	return sub
}

func (b *MemoryBroadcaster[T]) Broadcast(msg Message[T]) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}

	for sub := range b.subscribers {
		sub.send(msg)
	}
	return nil
}

// Len returns the number of active subscribers.
func (b *MemoryBroadcaster[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Close closes every subscriber. Calling Close twice is safe.
func (b *MemoryBroadcaster[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := b.subscribers
	b.subscribers = make(map[*subscriber[T]]struct{})
	b.mu.Unlock()

	for sub := range subs {
		sub.shutdown()
	}
	return nil
}

func (b *MemoryBroadcaster[T]) remove(sub *subscriber[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, sub)
}
