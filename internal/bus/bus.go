package bus

import (
	"strings"
	"sync"
)

// Bus is an in-process publish/subscribe bus. Subscribers name a kind prefix
// ("sync.", "session.", or "" for everything); the sync engine and session
// manager publish on it and the TUI subscribes for redraws.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[int]subscriber
	nextID      int
}

type subscriber struct {
	prefix string
	ch     chan Event
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subscribers: make(map[int]subscriber)}
}

// Publish delivers evt to every subscriber whose prefix matches evt.Kind.
// Delivery never blocks: a subscriber whose buffer is full misses the event.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subscribers {
		if !strings.HasPrefix(evt.Kind, s.prefix) {
			continue
		}
		select {
		case s.ch <- evt:
		default:
		}
	}
}

// Subscribe registers a receiver for events whose kind starts with prefix.
// bufSize is the channel buffer. The returned function removes the
// subscription; the channel is not closed, so pending events stay readable.
func (b *Bus) Subscribe(prefix string, bufSize int) (<-chan Event, func()) {
	ch := make(chan Event, bufSize)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subscribers[id] = subscriber{prefix: prefix, ch: ch}
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		delete(b.subscribers, id)
		b.mu.Unlock()
	}
}
