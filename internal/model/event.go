package model

// EventKind identifies which mutation produced an Event.
type EventKind string

const (
	EventReorder EventKind = "reorder"
	EventToggle  EventKind = "toggle"
	EventReset   EventKind = "reset"
)

// Event is published to layout observers after every persisted mutation.
type Event struct {
	Kind      EventKind `json:"kind"`
	Layout    Layout    `json:"widgets"`
	Message   string    `json:"message"`
	Timestamp int64     `json:"timestamp"`
}
