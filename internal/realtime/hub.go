package realtime

import (
	"sync"
)

// Action is the kind of row change carried by an Event.
type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Event describes a row-level change on a watched table. Subscribers treat
// any event as "refetch the whole collection" — the full-refresh subscription
// policy. The row itself is never shipped, only enough to know what changed.
type Event struct {
	Table  string `json:"table"`
	Action Action `json:"action"`
	ID     string `json:"id,omitempty"`
	Key    string `json:"key,omitempty"`
}

type subscriber struct {
	tables map[string]bool
	key    string
	ch     chan Event
}

// Hub fans row-change events out to SSE subscribers. Publishing never blocks:
// a subscriber whose buffer is full has the event dropped and will catch up
// on its next refetch.
type Hub struct {
	mu   sync.RWMutex
	subs map[*subscriber]bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[*subscriber]bool)}
}

const subscriberBuffer = 16

// Subscribe registers interest in the given tables, optionally filtered by a
// row key (e.g. a video ID for per-video reactions). An empty key matches
// every event on the table. The returned cancel func must be called when the
// consumer goes away.
func (h *Hub) Subscribe(tables []string, key string) (<-chan Event, func()) {
	sub := &subscriber{
		tables: make(map[string]bool, len(tables)),
		key:    key,
		ch:     make(chan Event, subscriberBuffer),
	}
	for _, t := range tables {
		sub.tables[t] = true
	}

	h.mu.Lock()
	h.subs[sub] = true
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs, sub)
		h.mu.Unlock()
	}
	return sub.ch, cancel
}

// Publish delivers an event to every matching subscriber.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		if !sub.tables[ev.Table] {
			continue
		}
		if sub.key != "" && ev.Key != "" && sub.key != ev.Key {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
		}
	}
}

// SubscriberCount reports the number of live subscriptions.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
