package domain

// EventType defines the type of real-time event.
type EventType string

const (
	// EventBrokersChanged tells clients to refetch the full broker list.
	EventBrokersChanged EventType = "brokers_changed"
	// EventPong answers a client keep-alive.
	EventPong EventType = "PONG"
)

// Event is the payload sent over WebSocket. It never carries a diff.
type Event struct {
	Type EventType `json:"type"`
}

// NewBrokersChangedEvent returns the change notification pushed after every mutation.
func NewBrokersChangedEvent() Event {
	return Event{Type: EventBrokersChanged}
}
