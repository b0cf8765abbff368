package backend

import (
	"context"
	"sync"

	"github.com/b0bbywan/go-mpris-bridge/events"
	"github.com/b0bbywan/go-mpris-bridge/logger"
)

// Broadcaster fans out events from a single upstream channel to all subscribers.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[chan events.Event]struct{}
}

// NewBroadcaster starts a broadcaster that reads from upstream and fans out to
// all subscribers. It stops when ctx is cancelled or upstream is closed.
func NewBroadcaster(ctx context.Context, upstream <-chan events.Event) *Broadcaster {
	b := &Broadcaster{
		clients: make(map[chan events.Event]struct{}),
	}
	go b.run(ctx, upstream)
	return b
}

// Subscribe registers a new subscriber and returns its dedicated channel
// (buffered, size 32).
func (b *Broadcaster) Subscribe() chan events.Event {
	ch := make(chan events.Event, 32)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel. Idempotent.
func (b *Broadcaster) Unsubscribe(ch chan events.Event) {
	b.mu.Lock()
	_, known := b.clients[ch]
	delete(b.clients, ch)
	b.mu.Unlock()
	if known {
		close(ch)
	}
}

// broadcast delivers one event to every subscriber. Holding the read lock
// across the sends means a subscriber is never added or removed mid-delivery:
// it sees either everything from its subscription on, or nothing. A full
// channel drops the event for that subscriber only.
func (b *Broadcaster) broadcast(e events.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- e:
		default:
			logger.Warn("[ws] client channel full, dropping %s event", e.Type)
		}
	}
}

func (b *Broadcaster) run(ctx context.Context, upstream <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-upstream:
			if !ok {
				return
			}
			b.broadcast(e)
		}
	}
}
