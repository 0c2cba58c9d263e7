package domain

import "time"

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// FallbackText is the bot reply to input that matches no option.
const FallbackText = "Please choose one of the options."

// Message is one turn of a conversation. Messages are append-only.
type Message struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id,omitempty"`
	Role      Role   `json:"role"`
	Text      string `json:"text"`

	// NodeID references the node active when a bot message was produced.
	NodeID string `json:"node_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	// Sequence is the per-session insertion order. It breaks CreatedAt ties.
	Sequence int `json:"sequence"`
}

// Before reports whether m precedes other in replay order.
func (m Message) Before(other Message) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	return m.Sequence < other.Sequence
}
