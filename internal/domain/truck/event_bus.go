package truck

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Subscription is a per-subscriber fan-out queue of events the subscriber
// registered interest in. Each subscriber gets its own buffered channel, so
// two independent consumers of the same EventKind each see every event;
// neither can steal the other's delivery.
type Subscription struct {
	ch     chan Event
	kinds  map[EventKind]struct{}
	bus    *EventBus
	closed bool
	mu     sync.Mutex
}

// Wait blocks until an event arrives, the context is cancelled, or timeout
// elapses (timeout <= 0 means no timeout beyond ctx).
func (s *Subscription) Wait(ctx context.Context, timeout time.Duration) (Event, bool) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	select {
	case ev, ok := <-s.ch:
		if !ok {
			return Event{}, false
		}
		return ev, true
	case <-ctx.Done():
		return Event{}, false
	}
}

// TryReceive returns the oldest pending event without blocking.
func (s *Subscription) TryReceive() (Event, bool) {
	select {
	case ev, ok := <-s.ch:
		return ev, ok
	default:
		return Event{}, false
	}
}

// Close unsubscribes, releasing the subscriber's queue.
func (s *Subscription) Close() {
	s.bus.unsubscribe(s)
}

// EventBus is the in-process publish/subscribe hub used by every task to
// announce faults, mode changes, and lifecycle transitions.
type EventBus struct {
	mu            sync.RWMutex
	subscriptions map[*Subscription]struct{}
	shutdown      bool
}

// NewEventBus creates an empty, running EventBus.
func NewEventBus() *EventBus {
	return &EventBus{subscriptions: make(map[*Subscription]struct{})}
}

// Subscribe registers a new subscriber interested in the given event kinds.
// The returned Subscription has its own buffered queue, sized to tolerate a
// slow consumer without blocking Emit.
func (b *EventBus) Subscribe(kinds ...EventKind) *Subscription {
	set := make(map[EventKind]struct{}, len(kinds))
	for _, k := range kinds {
		set[k] = struct{}{}
	}
	sub := &Subscription{
		ch:    make(chan Event, 32),
		kinds: set,
		bus:   b,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscriptions[sub] = struct{}{}
	return sub
}

func (b *EventBus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscriptions[sub]; !ok {
		return
	}
	delete(b.subscriptions, sub)

	sub.mu.Lock()
	defer sub.mu.Unlock()
	if !sub.closed {
		sub.closed = true
		close(sub.ch)
	}
}

// Emit publishes an event of the given kind to every subscriber registered
// for it. A subscriber whose queue is full drops the event rather than
// blocking the emitter.
func (b *EventBus) Emit(kind EventKind, data map[string]interface{}, now time.Time) Event {
	ev := Event{
		ID:        uuid.New(),
		Kind:      kind,
		Data:      data,
		Timestamp: now,
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscriptions {
		if _, interested := sub.kinds[kind]; !interested {
			continue
		}
		sub.mu.Lock()
		if !sub.closed {
			select {
			case sub.ch <- ev:
			default:
				// Slow consumer: drop rather than block the emitter.
			}
		}
		sub.mu.Unlock()
	}

	return ev
}

// Shutdown closes every active subscription, waking any blocked Wait calls.
func (b *EventBus) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.shutdown {
		return
	}
	b.shutdown = true

	for sub := range b.subscriptions {
		sub.mu.Lock()
		if !sub.closed {
			sub.closed = true
			close(sub.ch)
		}
		sub.mu.Unlock()
	}
	b.subscriptions = make(map[*Subscription]struct{})
}
