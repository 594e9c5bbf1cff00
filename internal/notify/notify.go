// Package notify delivers engine events to a presentation layer.
// The engine never renders anything itself; it publishes events after
// each committed state transition and subscribers decide how to
// surface them.
package notify

// Level classifies an event for presentation.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Event is one committed-transition notification.
type Event struct {
	Level   Level  `json:"level"`
	Kind    string `json:"kind"` // e.g. "duplicate.resolved", "save.failed"
	Message string `json:"message"`
}

// Hub fans events out to registered subscribers. Delivery is
// synchronous and in registration order; the engine runs on one
// logical goroutine, so no locking is needed.
type Hub struct {
	nextID int
	subs   []subscription
}

type subscription struct {
	id int
	fn func(Event)
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{}
}

// Subscribe registers a callback invoked after each committed state
// transition. The returned function removes the subscription.
func (h *Hub) Subscribe(fn func(Event)) func() {
	h.nextID++
	id := h.nextID
	h.subs = append(h.subs, subscription{id: id, fn: fn})
	return func() {
		for i, s := range h.subs {
			if s.id == id {
				h.subs = append(h.subs[:i], h.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers an event to all subscribers.
func (h *Hub) Publish(e Event) {
	for _, s := range h.subs {
		s.fn(e)
	}
}

// Info publishes an informational event.
func (h *Hub) Info(kind, message string) {
	h.Publish(Event{Level: LevelInfo, Kind: kind, Message: message})
}

// Error publishes an error event.
func (h *Hub) Error(kind, message string) {
	h.Publish(Event{Level: LevelError, Kind: kind, Message: message})
}
