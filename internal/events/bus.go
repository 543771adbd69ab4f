package events

import (
	"log"
	"sync"
)

// defaultBuffer is the per-subscriber channel capacity. A subscriber that falls
// further behind than this loses events rather than stalling the publisher.
const defaultBuffer = 64

// Subscription is a registered consumer of the bus. Receive events from C.
// Call Close (or Bus.Unsubscribe) when done; after Close returns, no further
// events are delivered and C is closed.
type Subscription struct {
	C <-chan Event

	bus *Bus
	ch  chan Event
}

// Close unsubscribes synchronously. Safe to call more than once.
func (s *Subscription) Close() {
	s.bus.Unsubscribe(s)
}

// Bus is a fan-out publish/subscribe hub. One Publish reaches every current
// subscriber. Publish never blocks: each subscriber has a bounded buffer and
// events are dropped per-subscriber when the buffer is full, so a slow or dead
// consumer cannot stall ingestion.
type Bus struct {
	mu      sync.Mutex
	subs    map[*Subscription]struct{}
	closed  bool
	dropped uint64
}

// NewBus returns an empty bus ready for use.
func NewBus() *Bus {
	return &Bus{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a new consumer with the default buffer size.
func (b *Bus) Subscribe() *Subscription {
	return b.SubscribeBuffered(defaultBuffer)
}

// SubscribeBuffered registers a new consumer with the given buffer capacity.
func (b *Bus) SubscribeBuffered(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	ch := make(chan Event, buffer)
	sub := &Subscription{C: ch, ch: ch}
	sub.bus = b

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return sub
	}
	b.subs[sub] = struct{}{}
	return sub
}

// Unsubscribe removes the subscription and closes its channel. It is
// synchronous: once it returns, no further events are delivered.
func (b *Bus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub]; !ok {
		return
	}
	delete(b.subs, sub)
	close(sub.ch)
}

// Publish delivers e to all current subscribers. Subscribers whose buffers are
// full miss the event; the drop is counted and logged once in a while.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for sub := range b.subs {
		select {
		case sub.ch <- e:
		default:
			b.dropped++
			if b.dropped%100 == 1 {
				log.Printf("events: slow subscriber, %d events dropped so far", b.dropped)
			}
		}
	}
}

// Dropped returns the total number of per-subscriber drops since creation.
func (b *Bus) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Close shuts the bus down: all subscriptions are removed and their channels
// closed, and subsequent Publish calls are no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for sub := range b.subs {
		delete(b.subs, sub)
		close(sub.ch)
	}
}
