package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventSessionStart EventType = "session_start"
	EventTransition   EventType = "transition"
	EventFallback     EventType = "fallback"
	EventSessionEnd   EventType = "session_end"
)

// Event describes a state change in a store-backed conversation.
type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	Type       EventType `json:"type"`
	SessionID  string    `json:"session_id"`
	FlowID     string    `json:"flow_id,omitempty"`
	FromNodeID string    `json:"from_node_id,omitempty"`
	ToNodeID   string    `json:"to_node_id,omitempty"`
}

// Hooks defines callbacks for engine observability. Nil callbacks are skipped.
type Hooks struct {
	OnSessionStart func(context.Context, Event)
	OnTransition   func(context.Context, Event)
	OnFallback     func(context.Context, Event)
	OnSessionEnd   func(context.Context, Event)
}

// Emit dispatches e to the callback matching its type.
func (h Hooks) Emit(ctx context.Context, e Event) {
	var fn func(context.Context, Event)
	switch e.Type {
	case EventSessionStart:
		fn = h.OnSessionStart
	case EventTransition:
		fn = h.OnTransition
	case EventFallback:
		fn = h.OnFallback
	case EventSessionEnd:
		fn = h.OnSessionEnd
	}
	if fn != nil {
		fn(ctx, e)
	}
}
