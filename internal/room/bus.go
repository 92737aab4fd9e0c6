package room

import (
	"sort"
	"sync"

	"github.com/feltcraft/cardroom/internal/game"
)

// Bus fans events out to every subscriber, synchronously and in publish
// order. Handlers run on the publishing goroutine while the source table
// holds its lock, so they must hand work off rather than block or call
// back into the room.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(game.Event)
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(game.Event))}
}

// Subscribe registers fn for all subsequent events and returns a cancel
// function that removes the subscription.
func (b *Bus) Subscribe(fn func(game.Event)) (cancel func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers each event to every subscriber in subscription order.
func (b *Bus) Publish(events ...game.Event) {
	b.mu.RLock()
	ids := make([]int, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(game.Event), len(ids))
	for i, id := range ids {
		fns[i] = b.subs[id]
	}
	b.mu.RUnlock()

	for _, ev := range events {
		for _, fn := range fns {
			fn(ev)
		}
	}
}

var _ game.Publisher = (*Bus)(nil)
