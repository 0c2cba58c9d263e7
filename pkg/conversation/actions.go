package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/pressline/internal/logging"
	"github.com/aretw0/pressline/pkg/domain"
	"github.com/aretw0/pressline/pkg/driver"
	"github.com/aretw0/pressline/pkg/gateway"
	"github.com/aretw0/pressline/pkg/session"
	"github.com/google/uuid"
)

// ErrNotStarted is returned when a turn is sent before a conversation started.
var ErrNotStarted = errors.New("conversation not started")

// Actions runs the start, send and end operations. It keeps no per-conversation
// state and is safe for concurrent use.
type Actions struct {
	gateway   *gateway.Gateway
	registry  *driver.Registry
	persisted map[string]bool
	locks     *session.Locks
	hooks     domain.Hooks
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// Option configures Actions.
type Option func(*Actions)

// WithRegistry sets the default scripted-flow registry.
func WithRegistry(r *driver.Registry) Option {
	return func(a *Actions) {
		a.registry = r
	}
}

// WithPersistedFlows names the flows backed by the dialog store.
func WithPersistedFlows(flowIDs ...string) Option {
	return func(a *Actions) {
		for _, id := range flowIDs {
			a.persisted[id] = true
		}
	}
}

// WithLocks sets the per-session lock table.
func WithLocks(l *session.Locks) Option {
	return func(a *Actions) {
		a.locks = l
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(h domain.Hooks) Option {
	return func(a *Actions) {
		a.hooks = h
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Actions) {
		a.logger = logger
	}
}

// WithClock replaces the time source of client-side messages.
func WithClock(now func() time.Time) Option {
	return func(a *Actions) {
		a.now = now
	}
}

// WithIDGenerator replaces the identifier source of client-side messages.
func WithIDGenerator(newID func() string) Option {
	return func(a *Actions) {
		a.newID = newID
	}
}

// NewActions creates the action layer over a gateway.
func NewActions(gw *gateway.Gateway, opts ...Option) *Actions {
	a := &Actions{
		gateway:   gw,
		registry:  driver.NewRegistry(),
		persisted: make(map[string]bool),
		locks:     session.NewLocks(),
		logger:    logging.NewNop(),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// IsPersisted reports whether flowID names a store-backed flow.
func (a *Actions) IsPersisted(flowID string) bool {
	return a.persisted[flowID]
}

// Registry returns the default scripted-flow registry.
func (a *Actions) Registry() *driver.Registry {
	return a.registry
}

// Gateway returns the dialog store gateway.
func (a *Actions) Gateway() *gateway.Gateway {
	return a.gateway
}

// StartRequest opens a conversation.
type StartRequest struct {
	FlowID  string
	ActorID string

	// Registry overrides the default scripted registry for this call.
	Registry *driver.Registry

	// Vars is handed to the scripted flow's Initial and Respond.
	Vars map[string]any
}

// StartResult is the normalized outcome of Start.
type StartResult struct {
	Driver driver.Driver

	// SessionID is empty for scripted conversations.
	SessionID string

	// ActiveNodeID is the initial node of a store-backed conversation.
	ActiveNodeID string

	Messages     []domain.Message
	QuickReplies []domain.QuickReply
}

// Start opens a conversation on flowID. Unknown scripted flows and store-backed
// flows without an initial node reject the call.
func (a *Actions) Start(ctx context.Context, req StartRequest) (StartResult, error) {
	if a.IsPersisted(req.FlowID) {
		return a.startPersisted(ctx, req)
	}
	return a.startScripted(ctx, req)
}

func (a *Actions) startPersisted(ctx context.Context, req StartRequest) (StartResult, error) {
	d := driver.NewPersisted(a.gateway)

	sessionID, ok := a.gateway.CreateSession(ctx, req.ActorID)
	if !ok {
		return StartResult{}, fmt.Errorf("conversation: start %q: %w", req.FlowID, domain.ErrSessionCreate)
	}

	node, ok := a.gateway.FetchInitialNode(ctx, req.FlowID)
	if !ok {
		// The session never got attached; close it so it does not linger as active.
		a.bestEffort(ctx, "close_orphan_session", func(ctx context.Context) error {
			return d.End(ctx, sessionID)
		})
		return StartResult{}, fmt.Errorf("conversation: start %q: %w", req.FlowID, domain.ErrNoInitialNode)
	}

	a.gateway.AttachSessionToFlow(ctx, sessionID, req.FlowID, node.ID)
	a.gateway.InsertMessage(ctx, sessionID, node.Text, domain.RoleAssistant, node.ID)

	a.logger.InfoContext(ctx, "conversation started",
		"flow_id", req.FlowID, "session_id", sessionID, "node_id", node.ID)
	a.hooks.Emit(ctx, domain.Event{
		Timestamp: a.now(),
		Type:      domain.EventSessionStart,
		SessionID: sessionID,
		FlowID:    req.FlowID,
		ToNodeID:  node.ID,
	})

	return StartResult{
		Driver:       d,
		SessionID:    sessionID,
		ActiveNodeID: node.ID,
		Messages:     a.gateway.FetchSessionMessages(ctx, sessionID),
		QuickReplies: domain.QuickRepliesFor(a.gateway.FetchOptions(ctx, node.ID)),
	}, nil
}

func (a *Actions) startScripted(ctx context.Context, req StartRequest) (StartResult, error) {
	registry := req.Registry
	if registry == nil {
		registry = a.registry
	}
	flow, ok := registry.Lookup(req.FlowID)
	if !ok {
		return StartResult{}, fmt.Errorf("conversation: start %q: %w", req.FlowID, domain.ErrFlowNotFound)
	}
	if f, ok := flow.(driver.Forker); ok {
		flow = f.Fork()
	}

	d := driver.NewScripted(flow)
	lines := d.Initial(ctx, req.Vars)

	a.logger.DebugContext(ctx, "scripted conversation started", "flow_id", req.FlowID)

	return StartResult{
		Driver:       d,
		Messages:     a.clientMessages(domain.RoleAssistant, lines...),
		QuickReplies: domain.QuickRepliesFromLabels(d.QuickReplies()),
	}, nil
}

// SendRequest carries one user turn.
type SendRequest struct {
	Driver       driver.Driver
	SessionID    string
	ActiveNodeID string
	Input        string
	Vars         map[string]any
}

// SendResult is the normalized outcome of Send. For store-backed conversations
// Messages is the full history; for scripted ones it holds the new bot lines.
type SendResult struct {
	Messages     []domain.Message
	QuickReplies []domain.QuickReply

	// ActiveNodeID is empty for scripted conversations.
	ActiveNodeID string
}

// Send applies one user turn. Input matching no option is answered with a
// fallback message, never with an error.
func (a *Actions) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	if req.SessionID != "" {
		var res SendResult
		err := a.locks.WithLock(ctx, req.SessionID, func(ctx context.Context) error {
			var err error
			res, err = a.sendPersisted(ctx, req)
			return err
		})
		return res, err
	}

	if req.Driver == nil {
		return SendResult{}, ErrNotStarted
	}
	reply := req.Driver.Respond(ctx, req.Vars, req.Input)
	return SendResult{
		Messages:     a.clientMessages(domain.RoleAssistant, reply.Messages...),
		QuickReplies: domain.QuickRepliesFromLabels(reply.QuickReplies),
	}, nil
}

// sendPersisted runs the store-backed turn. The caller holds the session lock.
//
// The full history is re-read on every turn. Returning only the delta would
// save a query; the contract stays full-history until callers can merge deltas.
func (a *Actions) sendPersisted(ctx context.Context, req SendRequest) (SendResult, error) {
	id := req.SessionID

	if sess, ok := a.gateway.FetchSession(ctx, id); ok && sess.Ended() {
		return SendResult{}, fmt.Errorf("conversation: send to %q: %w", id, domain.ErrSessionEnded)
	}

	a.gateway.InsertMessage(ctx, id, req.Input, domain.RoleUser, "")

	nodeID, flowID := req.ActiveNodeID, ""
	if current, ok := a.gateway.FetchCurrentNode(ctx, id); ok {
		nodeID, flowID = current.ID, current.FlowID
	}
	var options []domain.Option
	if nodeID != "" {
		options = a.gateway.FetchOptions(ctx, nodeID)
	}

	next := nodeID
	if opt, matched := domain.MatchOption(options, req.Input); matched {
		if a.gateway.UpdateCurrentNode(ctx, id, opt.ToNodeID) {
			next = opt.ToNodeID
			if dest, ok := a.gateway.FetchNode(ctx, next); ok {
				a.gateway.InsertMessage(ctx, id, dest.Text, domain.RoleAssistant, dest.ID)
			}
			a.hooks.Emit(ctx, domain.Event{
				Timestamp:  a.now(),
				Type:       domain.EventTransition,
				SessionID:  id,
				FlowID:     flowID,
				FromNodeID: nodeID,
				ToNodeID:   next,
			})
		}
	} else {
		a.gateway.InsertMessage(ctx, id, domain.FallbackText, domain.RoleAssistant, nodeID)
		a.hooks.Emit(ctx, domain.Event{
			Timestamp:  a.now(),
			Type:       domain.EventFallback,
			SessionID:  id,
			FlowID:     flowID,
			FromNodeID: nodeID,
		})
	}

	var nextOptions []domain.Option
	if next != "" {
		nextOptions = a.gateway.FetchOptions(ctx, next)
	}
	return SendResult{
		Messages:     a.gateway.FetchSessionMessages(ctx, id),
		QuickReplies: domain.QuickRepliesFor(nextOptions),
		ActiveNodeID: next,
	}, nil
}

var errNoEndNode = errors.New("flow has no terminal node")

// End closes a store-backed session. Empty session ids (scripted
// conversations) are a no-op. The closing message is best effort; the session
// is ended regardless. Ending an ended session changes nothing.
func (a *Actions) End(ctx context.Context, sessionID, flowID string) error {
	if sessionID == "" {
		return nil
	}

	return a.locks.WithLock(ctx, sessionID, func(ctx context.Context) error {
		sess, known := a.gateway.FetchSession(ctx, sessionID)
		if known && sess.Ended() {
			a.logger.DebugContext(ctx, "session already ended", "session_id", sessionID)
			return nil
		}
		if flowID == "" && known {
			flowID = sess.FlowID
		}

		a.bestEffort(ctx, "closing_message", func(ctx context.Context) error {
			node, ok := a.gateway.FetchEndNodeText(ctx, flowID)
			if !ok {
				return errNoEndNode
			}
			if _, ok := a.gateway.InsertMessage(ctx, sessionID, node.Text, domain.RoleAssistant, node.ID); !ok {
				return fmt.Errorf("closing message for %q not stored", sessionID)
			}
			return nil
		})

		if err := driver.NewPersisted(a.gateway).End(ctx, sessionID); err != nil {
			// Already logged by the gateway; a failed end is a degraded turn, not a UI error.
			return nil
		}

		a.logger.InfoContext(ctx, "conversation ended", "flow_id", flowID, "session_id", sessionID)
		a.hooks.Emit(ctx, domain.Event{
			Timestamp: a.now(),
			Type:      domain.EventSessionEnd,
			SessionID: sessionID,
			FlowID:    flowID,
		})
		return nil
	})
}

// OffersEndChat reports whether the synthetic "End Chat" reply is the one on
// offer for sessionID: the session is over, unreadable, or its current node
// has no outgoing options. A real option labelled "End Chat" is followed as a
// normal turn instead.
func (a *Actions) OffersEndChat(ctx context.Context, sessionID string) bool {
	if sess, ok := a.gateway.FetchSession(ctx, sessionID); !ok || sess.Ended() {
		return true
	}
	node, ok := a.gateway.FetchCurrentNode(ctx, sessionID)
	if !ok {
		return true
	}
	return len(a.gateway.FetchOptions(ctx, node.ID)) == 0
}

// bestEffort runs a side step whose failure must not fail the enclosing
// operation. The outcome is logged and dropped.
func (a *Actions) bestEffort(ctx context.Context, op string, step func(context.Context) error) {
	if err := step(ctx); err != nil {
		a.logger.DebugContext(ctx, "best-effort step skipped", "op", op, "err", err)
	}
}

// clientMessages synthesizes message records that never reach the store.
func (a *Actions) clientMessages(role domain.Role, lines ...string) []domain.Message {
	msgs := make([]domain.Message, len(lines))
	for i, text := range lines {
		msgs[i] = domain.Message{
			ID:        a.newID(),
			Role:      role,
			Text:      text,
			CreatedAt: a.now(),
			Sequence:  i + 1,
		}
	}
	return msgs
}
