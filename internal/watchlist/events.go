package watchlist

import (
	"log/slog"
	"sync"

	"stockwatch/internal/market"
)

// EventKind describes how the watchlist changed.
type EventKind string

const (
	// Added means Symbol was appended to the watchlist.
	Added EventKind = "added"
	// Removed means Symbol was dropped from the watchlist.
	Removed EventKind = "removed"
	// Reset means the whole list may have changed; Symbol is empty.
	Reset EventKind = "reset"
)

// Event is a single watchlist change notification.
type Event struct {
	Kind   EventKind
	Symbol market.Symbol
}

const subscriberBuffer = 32

// broker fans events out to subscribers. Each store owns its own broker.
type broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

func (b *broker) subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs == nil {
		b.subs = make(map[int]chan Event)
	}
	id := b.nextID
	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

// publish delivers ev without blocking. A subscriber that has fallen a
// full buffer behind misses the event.
func (b *broker) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			slog.Warn("watchlist subscriber is full, dropping event",
				"subscriber", id,
				"kind", ev.Kind,
				"symbol", ev.Symbol)
		}
	}
}
