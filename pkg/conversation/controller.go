package conversation

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/pressline/pkg/domain"
	"github.com/aretw0/pressline/pkg/driver"
)

// Controller holds the conversation in focus for one UI. It owns the driver,
// the session id, the active node and, for scripted flows, the transcript.
// All methods are safe for concurrent use.
type Controller struct {
	mu      sync.Mutex
	actions *Actions
	actorID string

	driver     driver.Driver
	flowID     string
	sessionID  string
	nodeID     string
	vars       map[string]any
	transcript []domain.Message
}

// NewController creates a controller acting on behalf of actorID.
func NewController(actions *Actions, actorID string) *Controller {
	return &Controller{
		actions: actions,
		actorID: actorID,
	}
}

// State is a snapshot of the controller.
type State struct {
	FlowID       string
	SessionID    string
	ActiveNodeID string
	Kind         driver.Kind
	Started      bool
}

// State returns a snapshot of the conversation in focus.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := State{
		FlowID:       c.flowID,
		SessionID:    c.sessionID,
		ActiveNodeID: c.nodeID,
		Started:      c.driver != nil,
	}
	if c.driver != nil {
		st.Kind = c.driver.Kind()
	}
	return st
}

// Snapshot returns the caller-side record of the focused conversation, for
// the list a Switcher consumes. localID names scripted conversations, which
// have no session id.
func (c *Controller) Snapshot(localID string) Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	conv := Conversation{
		ID:     c.sessionID,
		FlowID: c.flowID,
		Status: domain.StatusActive,
	}
	if c.sessionID == "" {
		conv.ID = localID
		conv.Messages = append([]domain.Message(nil), c.transcript...)
		conv.Driver = c.driver
	}
	return conv
}

// Start opens flowID and takes focus. registry overrides the default scripted
// registry when non-nil. On failure the previous state is kept.
func (c *Controller) Start(ctx context.Context, flowID string, registry *driver.Registry, vars map[string]any) (StartResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := c.actions.Start(ctx, StartRequest{
		FlowID:   flowID,
		ActorID:  c.actorID,
		Registry: registry,
		Vars:     vars,
	})
	if err != nil {
		return StartResult{}, err
	}

	c.driver = res.Driver
	c.flowID = flowID
	c.sessionID = res.SessionID
	c.nodeID = res.ActiveNodeID
	c.vars = vars
	c.transcript = nil
	if res.SessionID == "" {
		c.transcript = renumber(res.Messages)
		res.Messages = append([]domain.Message(nil), c.transcript...)
	}
	return res, nil
}

// Send applies a user turn to the focused conversation. The returned messages
// are always the full visible history.
func (c *Controller) Send(ctx context.Context, input string) (SendResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.driver == nil && c.sessionID == "" {
		return SendResult{}, ErrNotStarted
	}

	res, err := c.actions.Send(ctx, SendRequest{
		Driver:       c.driver,
		SessionID:    c.sessionID,
		ActiveNodeID: c.nodeID,
		Input:        input,
		Vars:         c.vars,
	})
	if err != nil {
		return SendResult{}, err
	}

	if c.sessionID != "" {
		c.nodeID = res.ActiveNodeID
		return res, nil
	}

	user := c.actions.clientMessages(domain.RoleUser, input)
	c.transcript = renumber(append(append(c.transcript, user...), res.Messages...))
	res.Messages = append([]domain.Message(nil), c.transcript...)
	return res, nil
}

// End closes the focused conversation and clears the controller. flowID
// overrides the flow used to find the closing message when non-empty.
func (c *Controller) End(ctx context.Context, flowID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if flowID == "" {
		flowID = c.flowID
	}
	var err error
	if c.sessionID != "" {
		err = c.actions.End(ctx, c.sessionID, flowID)
	} else if c.driver != nil {
		err = c.driver.End(ctx, "")
	}

	c.reset()
	return err
}

// SetSessionID focuses a store-backed session directly, without Start. The
// active node is resolved from the store on the next turn.
func (c *Controller) SetSessionID(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.focusSession(sessionID, "", "")
}

// Resume switches focus to targetID among known and adopts its state.
// Scripted targets must carry the Driver that produced their transcript;
// without it Resume fails with ErrNoRetainedFlow.
func (c *Controller) Resume(ctx context.Context, sw *Switcher, targetID string, known []Conversation) (SwitchResult, error) {
	res, err := sw.Switch(ctx, targetID, known)
	if err != nil {
		return SwitchResult{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if res.Persisted {
		c.focusSession(res.ConversationID, res.FlowID, res.ActiveNodeID)
		return res, nil
	}

	// A fresh flow would sit at its start step while the transcript shows
	// later turns, so only the driver that produced the transcript will do.
	var d driver.Driver
	for _, conv := range known {
		if conv.ID == targetID {
			d = conv.Driver
			break
		}
	}
	if d == nil {
		return SwitchResult{}, fmt.Errorf("conversation: resume %q: %w", targetID, ErrNoRetainedFlow)
	}

	c.driver = d
	c.flowID = res.FlowID
	c.sessionID = ""
	c.nodeID = ""
	c.transcript = append([]domain.Message(nil), res.Messages...)
	if s, ok := d.(*driver.Scripted); ok {
		res.QuickReplies = domain.QuickRepliesFromLabels(s.QuickReplies())
	}
	return res, nil
}

func (c *Controller) focusSession(sessionID, flowID, nodeID string) {
	c.reset()
	c.driver = driver.NewPersisted(c.actions.Gateway())
	c.sessionID = sessionID
	c.flowID = flowID
	c.nodeID = nodeID
}

// OffersEndChat reports whether "End Chat" should end the focused
// conversation rather than be sent as a turn. For store-backed sessions that
// holds when the synthetic reply is on offer. For scripted flows it holds
// once the current step has no choices left.
func (c *Controller) OffersEndChat(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sessionID != "" {
		return c.actions.OffersEndChat(ctx, c.sessionID)
	}
	s, ok := c.driver.(*driver.Scripted)
	if !ok {
		return true
	}
	return len(s.QuickReplies()) == 0
}

func (c *Controller) reset() {
	c.driver = nil
	c.flowID = ""
	c.sessionID = ""
	c.nodeID = ""
	c.vars = nil
	c.transcript = nil
}

// renumber assigns transcript positions in order.
func renumber(msgs []domain.Message) []domain.Message {
	for i := range msgs {
		msgs[i].Sequence = i + 1
	}
	return msgs
}
