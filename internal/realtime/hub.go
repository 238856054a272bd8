// Package realtime pushes ledger and roster changes to connected viewers.
//
// Delivery is at-most-once: an event reaches the subscribers connected when it is
// published, a subscriber whose buffer is full misses it, and nothing is replayed.
package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"absensi/internal/metrics"
)

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 16

// Event is one notification as sent to viewers.
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// NewEvent encodes payload into an Event.
func NewEvent(name string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Name: name, Data: data}, nil
}

// Hub fans events out to the subscribers of this process.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	buffer int
	log    *zap.Logger
	m      *metrics.Metrics
}

// NewHub creates a hub. log and m may be nil.
func NewHub(buffer int, log *zap.Logger, m *metrics.Metrics) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{subs: make(map[*Subscription]struct{}), buffer: buffer, log: log, m: m}
}

// Subscription is one connected viewer.
type Subscription struct {
	C <-chan Event

	ch   chan Event
	hub  *Hub
	once sync.Once
}

// Subscribe registers a new viewer. Callers must Close it when the viewer leaves.
func (h *Hub) Subscribe() *Subscription {
	ch := make(chan Event, h.buffer)
	sub := &Subscription{C: ch, ch: ch, hub: h}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()

	h.m.SetSubscribers(n)
	return sub
}

// Close unregisters the viewer and closes C. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		delete(h.subs, s)
		close(s.ch)
		n := len(h.subs)
		h.mu.Unlock()

		h.m.SetSubscribers(n)
	})
}

// Len returns the number of connected viewers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish encodes payload and delivers it locally.
func (h *Hub) Publish(_ context.Context, event string, payload any) {
	ev, err := NewEvent(event, payload)
	if err != nil {
		h.log.Error("encode realtime event", zap.String("event", event), zap.Error(err))
		return
	}
	h.Deliver(ev)
}

// Deliver hands ev to every subscriber without blocking. Subscribers with a full
// buffer miss the event.
func (h *Hub) Deliver(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		select {
		case sub.ch <- ev:
			h.m.EventDelivered(ev.Name)
		default:
			h.m.EventDropped(ev.Name)
			h.log.Debug("realtime subscriber full, event dropped", zap.String("event", ev.Name))
		}
	}
}
