// Package broadcast provides type-safe, non-blocking fan-out of messages to
// in-process subscribers.
//
// Basic usage:
//
//	b := broadcast.NewMemoryBroadcaster[string](16)
//	defer b.Close()
//
//	sub := b.Subscribe(ctx)
//	defer sub.Close()
//
//	_ = b.Broadcast(broadcast.Message[string]{Data: "hello"})
//
//	for msg := range sub.Receive() {
//		fmt.Println(msg.Data)
//	}
//
// Broadcast never blocks and never starts goroutines, so it may be called
// while holding locks. A subscriber whose buffer is full misses the message;
// Dropped reports how many were missed. Subscribers are removed when closed
// or when the context passed to Subscribe is done.
package broadcast
