package events

import (
	"context"
	"log"
	"sync"
)

// MemoryBus is an in-process bus used by tests and db-less development.
// Handlers run synchronously on the publisher's goroutine.
type MemoryBus struct {
	mu          sync.RWMutex
	subscribers []memorySubscription
	closed      bool
}

type memorySubscription struct {
	pattern string
	handler Handler
}

// NewMemoryBus creates an in-process event bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{}
}

// Publish delivers the event to every matching subscriber. Handler errors
// are logged, not returned; delivery to one subscriber never blocks another.
func (b *MemoryBus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	subs := make([]memorySubscription, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.RUnlock()

	for _, s := range subs {
		if !matchesPattern(event.Type, s.pattern) {
			continue
		}
		if err := s.handler(ctx, event); err != nil {
			log.Printf("handler error for event %s: %v", event.ID, err)
		}
	}

	return nil
}

// Subscribe registers a handler for events matching the pattern.
func (b *MemoryBus) Subscribe(ctx context.Context, pattern string, consumerName string, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, memorySubscription{pattern: pattern, handler: handler})
	return nil
}

// Close drops all subscribers.
func (b *MemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = nil
	b.closed = true
}

// Health always reports healthy.
func (b *MemoryBus) Health() error {
	return nil
}

var _ EventBus = (*MemoryBus)(nil)
