// Package events fans out state changes to in-process subscribers.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event types published on writes.
const (
	OrderCreated = "order.created"
	OrderUpdated = "order.updated"
	AdCreated    = "ad.created"
	AdDeleted    = "ad.deleted"
	FeeUpdated   = "fee.updated"
	KYCUpdated   = "kyc.updated"

	MerchantUpdated     = "merchant.updated"
	AnnouncementUpdated = "announcement.updated"
)

// Event is a single published change.
type Event struct {
	Type    string    `json:"type"`
	Time    time.Time `json:"time"`
	Payload any       `json:"payload"`
}

// Publisher accepts events. Publish must not block.
type Publisher interface {
	Publish(eventType string, payload any)
}

// Subscription receives events until it is cancelled.
type Subscription struct {
	ID      string
	C       <-chan Event
	ch      chan Event
	dropped atomic.Uint64
}

// Dropped returns how many events were discarded because the subscriber was full.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Hub delivers every published event to every live subscription.
// Slow subscribers lose events instead of stalling writers.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]*Subscription
	bufSize int
	now     func() time.Time
	log     zerolog.Logger
}

// NewHub creates a hub whose subscriptions buffer bufSize events.
func NewHub(bufSize int, log zerolog.Logger) *Hub {
	if bufSize <= 0 {
		bufSize = 64
	}
	return &Hub{
		subs:    make(map[string]*Subscription),
		bufSize: bufSize,
		now:     time.Now,
		log:     log,
	}
}

// Publish sends an event to all subscribers without blocking.
func (h *Hub) Publish(eventType string, payload any) {
	ev := Event{Type: eventType, Time: h.now().UTC(), Payload: payload}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		select {
		case sub.ch <- ev:
		default:
			n := sub.dropped.Add(1)
			h.log.Warn().Str("subscriber", sub.ID).Str("event", eventType).Uint64("dropped", n).Msg("subscriber full, event dropped")
		}
	}
}

// Subscribe registers a new subscription.
func (h *Hub) Subscribe() *Subscription {
	ch := make(chan Event, h.bufSize)
	sub := &Subscription{ID: uuid.NewString(), C: ch, ch: ch}

	h.mu.Lock()
	h.subs[sub.ID] = sub
	h.mu.Unlock()
	return sub
}

// Unsubscribe removes the subscription and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub.ID]; !ok {
		return
	}
	delete(h.subs, sub.ID)
	close(sub.ch)
}

// Len returns the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
