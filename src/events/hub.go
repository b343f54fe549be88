// Package events is the server-side replacement for the UI's broadcast
// events: mutating handlers publish after a successful write, connected
// clients re-read whatever the event names. Delivery is best-effort.
package events

import (
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"
)

const (
	TypePreferencesUpdated = "preferences.updated"
	TypeAccountsChanged    = "accounts.changed"
	TypeTradesChanged      = "trades.changed"
	TypeStrategiesChanged  = "strategies.changed"
	TypeLogin              = "auth.login"
	TypeLogout             = "auth.logout"
)

type Event struct {
	Type    string      `json:"type"`
	UserID  uint        `json:"user_id"`
	Payload interface{} `json:"payload,omitempty"`
	At      time.Time   `json:"at"`
}

// Hub fans events out to subscribers. Publish never blocks: a subscriber
// whose buffer is full has the event dropped, a slow websocket must not
// stall mutations.
type Hub struct {
	mu          sync.Mutex
	subscribers map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[chan Event]struct{}),
	}
}

// Subscribe registers a buffered event channel. Callers must Unsubscribe
// when done or the channel leaks.
func (h *Hub) Subscribe() chan Event {
	ch := make(chan Event, 16)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	return ch
}

func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	if _, ok := h.subscribers[ch]; ok {
		delete(h.subscribers, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// Publish stamps and delivers the event to every subscriber, dropping it
// where the buffer is full.
func (h *Hub) Publish(event Event) {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			logger.WithFields(map[string]interface{}{
				"event_type": event.Type,
				"user_id":    event.UserID,
			}).Warn("[events] Subscriber buffer full, event dropped")
		}
	}
}

// SubscriberCount is used by tests and the status endpoint.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
