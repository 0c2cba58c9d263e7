package domain

import "time"

// SessionStatus tracks whether a session still accepts dialog turns.
type SessionStatus string

const (
	StatusActive SessionStatus = "active"
	StatusEnded  SessionStatus = "ended"
)

// Session is one actor's traversal of a flow.
type Session struct {
	ID      string        `json:"id"`
	ActorID string        `json:"actor_id"`
	FlowID  string        `json:"flow_id,omitempty"`
	Status  SessionStatus `json:"status"`

	// CurrentNodeID always references a node of FlowID while the session
	// is active. Empty until the session is attached.
	CurrentNodeID string `json:"current_node_id,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// Ended reports whether the session reached its terminal status.
func (s Session) Ended() bool {
	return s.Status == StatusEnded
}

// SessionSummary is the conversation-list view of a session.
type SessionSummary struct {
	ID     string        `json:"id"`
	FlowID string        `json:"flow_id"`
	Title  string        `json:"title"`
	Status SessionStatus `json:"status"`

	// UpdatedAt is the last time the session record or its history changed.
	UpdatedAt time.Time `json:"updated_at"`
}
