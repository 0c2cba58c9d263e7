package conversation

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/pressline/pkg/domain"
	"github.com/aretw0/pressline/pkg/driver"
	"github.com/aretw0/pressline/pkg/gateway"
)

// ErrConversationNotFound is returned when the switch target is not among the
// caller's open conversations.
var ErrConversationNotFound = errors.New("conversation not found")

// ErrNoRetainedFlow is returned when a scripted conversation is resumed
// without the driver that produced its transcript.
var ErrNoRetainedFlow = errors.New("scripted conversation has no retained flow")

// Conversation is the caller's record of one open conversation.
type Conversation struct {
	// ID is the session id of a store-backed conversation, or any local id
	// the caller picked for a scripted one.
	ID     string
	FlowID string
	Status domain.SessionStatus

	// Messages is the retained transcript of a scripted conversation.
	// Store-backed conversations are reloaded and ignore it.
	Messages []domain.Message

	// Driver is the scripted driver that produced Messages. Resuming a
	// scripted conversation requires it.
	Driver driver.Driver
}

// SwitchResult is the rebuilt state of the conversation taking focus.
type SwitchResult struct {
	ConversationID string
	FlowID         string
	Persisted      bool
	Messages       []domain.Message
	QuickReplies   []domain.QuickReply
	ActiveNodeID   string

	// QuickRepliesDeferred is set for scripted conversations: their quick
	// replies belong to the flow object and are derived by the caller.
	QuickRepliesDeferred bool
}

// Switcher moves focus between open conversations.
type Switcher struct {
	gateway     *gateway.Gateway
	isPersisted func(flowID string) bool
}

// NewSwitcher creates a switcher sharing the gateway and flow set of a.
func NewSwitcher(a *Actions) *Switcher {
	return &Switcher{
		gateway:     a.gateway,
		isPersisted: a.IsPersisted,
	}
}

// Switch rebuilds the state of targetID from known. The target's history is
// returned whole so no turn of a previously focused conversation leaks in.
func (s *Switcher) Switch(ctx context.Context, targetID string, known []Conversation) (SwitchResult, error) {
	var target *Conversation
	for i := range known {
		if known[i].ID == targetID {
			target = &known[i]
			break
		}
	}
	if target == nil {
		return SwitchResult{}, fmt.Errorf("conversation: switch to %q: %w", targetID, ErrConversationNotFound)
	}

	res := SwitchResult{
		ConversationID: target.ID,
		FlowID:         target.FlowID,
	}

	if !s.isPersisted(target.FlowID) {
		res.Messages = append([]domain.Message(nil), target.Messages...)
		res.QuickRepliesDeferred = true
		return res, nil
	}

	res.Persisted = true
	res.Messages = s.gateway.FetchSessionMessages(ctx, target.ID)
	res.QuickReplies = []domain.QuickReply{}

	node, ok := s.gateway.FetchCurrentNode(ctx, target.ID)
	if !ok {
		return res, nil
	}
	res.ActiveNodeID = node.ID
	if target.Status != domain.StatusEnded {
		res.QuickReplies = domain.QuickRepliesFor(s.gateway.FetchOptions(ctx, node.ID))
	}
	return res, nil
}
