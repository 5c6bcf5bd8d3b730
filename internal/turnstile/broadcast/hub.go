// Package broadcast fans counter deltas out to live subscribers.  The
// fan-out is a convenience notification, not a source of truth: a missed
// update never affects counter correctness, so every path here is
// best-effort and non-blocking.
package broadcast

import (
	"log"
	"sync"

	"github.com/turnstile-labs/turnstile/internal/metrics"
)

// CountUpdate is one counter delta pushed to subscribers.
type CountUpdate struct {
	EventID     string `json:"eventId"`
	Delta       int64  `json:"delta"`
	InsideCount int64  `json:"insideCount"`
}

// Broadcaster is what the check-in coordinator publishes through.
type Broadcaster interface {
	Publish(eventID string, delta, insideCount int64)
}

// Hub fans updates out to in-process subscriber channels.  Having no
// subscribers is a normal state; Publish is then a no-op.
type Hub struct {
	logger *log.Logger

	mu   sync.RWMutex
	subs map[chan CountUpdate]struct{}
}

func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		logger: logger,
		subs:   make(map[chan CountUpdate]struct{}),
	}
}

// Subscribe attaches a subscriber with the given channel buffer and
// returns its channel plus a cancel function.  Cancel detaches the
// subscriber and closes the channel; calling it more than once is safe.
func (h *Hub) Subscribe(buffer int) (<-chan CountUpdate, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan CountUpdate, buffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	metrics.BroadcastSubscribers.Inc()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			// Safe to close here: Publish holds the read lock while
			// sending, so no send can race this close.
			close(ch)
			h.mu.Unlock()
			metrics.BroadcastSubscribers.Dec()
		})
	}
	return ch, cancel
}

// Publish delivers the update to every subscriber that has buffer space
// and drops it for those that don't.  At-most-once, no retry, never
// blocks the caller.
func (h *Hub) Publish(eventID string, delta, insideCount int64) {
	u := CountUpdate{EventID: eventID, Delta: delta, InsideCount: insideCount}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs {
		select {
		case ch <- u:
		default:
			metrics.BroadcastDroppedTotal.Inc()
			if h.logger != nil {
				h.logger.Printf("broadcast: dropped update for event %s (slow subscriber)", eventID)
			}
		}
	}
}

// Subscribers returns the number of attached subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
