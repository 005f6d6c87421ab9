// Package events carries the in-process change notifications that close the
// writer-side gap: the filesystem watcher is how *other* contexts learn
// about a write, this bus is how consumers inside the writing context do.
package events

import (
	"log/slog"
	"sync"
)

// Origin identifies which channel produced a change notification.
type Origin string

const (
	// OriginLocal marks a change made by a store in this context.
	OriginLocal Origin = "local"
	// OriginExternal marks a change observed in the shared storage, made by
	// another context.
	OriginExternal Origin = "external"
)

// Change is a pure trigger: it names the entry that changed but carries no
// state payload. Consumers re-read and reconcile.
type Change struct {
	Key    string
	Origin Origin
}

// Bus is a small in-process fan-out for Change notifications.
//
// Publish never blocks: mutations are synchronous and must return
// immediately, so a subscriber with a full buffer misses the notification.
// The periodic reconcile backstop covers missed deliveries.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]chan Change
	nextID uint64
	closed bool
}

func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]chan Change)}
}

// Subscribe registers a listener with the given channel buffer. The returned
// function unsubscribes and closes the channel; it is safe to call twice.
func (b *Bus) Subscribe(buffer int) (<-chan Change, func()) {
	ch := make(chan Change, buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	b.nextID++
	id := b.nextID
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(ch)
			}
			b.mu.Unlock()
		})
	}
	return ch, unsubscribe
}

// Publish delivers a change to every subscriber without blocking.
func (b *Bus) Publish(c Change) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- c:
		default:
			slog.Debug("Change notification dropped, subscriber buffer full",
				slog.String("entry_key", c.Key))
		}
	}
}

// SubscriberCount reports active subscriptions. Intended for tests.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes the bus and all subscription channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
