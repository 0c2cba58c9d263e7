// Package gateway applies the dialog engine's failure policy on top of a
// ports.DialogStore: every store failure is logged once and degraded to a
// "no data" result, so callers never crash on a transient store error.
package gateway

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/pressline/internal/logging"
	"github.com/aretw0/pressline/pkg/domain"
	"github.com/aretw0/pressline/pkg/ports"
)

// Gateway is the Dialog Store Gateway. Lookups report misses through an ok
// flag, list reads return nil on failure, and mutations report success as a
// bool. Callers must tolerate empty results.
type Gateway struct {
	store  ports.DialogStore
	logger *slog.Logger
}

// Option configures the Gateway.
type Option func(*Gateway)

// WithLogger sets the logger used for degraded operations.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// New wraps a store.
func New(store ports.DialogStore, opts ...Option) *Gateway {
	g := &Gateway{
		store:  store,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Store returns the wrapped store.
func (g *Gateway) Store() ports.DialogStore {
	return g.store
}

// degrade logs a failed store call. Misses are not failures and are logged at
// debug level only.
func (g *Gateway) degrade(ctx context.Context, op string, err error, attrs ...any) {
	attrs = append(attrs, "op", op, "err", err)
	if isMiss(err) {
		g.logger.DebugContext(ctx, "dialog store miss", attrs...)
		return
	}
	g.logger.WarnContext(ctx, "dialog store call failed", attrs...)
}

func isMiss(err error) bool {
	return errors.Is(err, domain.ErrNodeNotFound) || errors.Is(err, domain.ErrSessionNotFound)
}

// FetchInitialNode returns the unique initial node of a flow.
func (g *Gateway) FetchInitialNode(ctx context.Context, flowID string) (domain.Node, bool) {
	n, err := g.store.FetchInitialNode(ctx, flowID)
	if err != nil {
		g.degrade(ctx, "fetch_initial_node", err, "flow_id", flowID)
		return domain.Node{}, false
	}
	return n, true
}

// FetchNode returns a node by ID.
func (g *Gateway) FetchNode(ctx context.Context, nodeID string) (domain.Node, bool) {
	n, err := g.store.FetchNode(ctx, nodeID)
	if err != nil {
		g.degrade(ctx, "fetch_node", err, "node_id", nodeID)
		return domain.Node{}, false
	}
	return n, true
}

// FetchOptions returns the options leaving a node. A failed fetch yields
// zero transitions.
func (g *Gateway) FetchOptions(ctx context.Context, nodeID string) []domain.Option {
	opts, err := g.store.FetchOptions(ctx, nodeID)
	if err != nil {
		g.degrade(ctx, "fetch_options", err, "node_id", nodeID)
		return nil
	}
	return opts
}

// CreateSession opens a session for an actor.
func (g *Gateway) CreateSession(ctx context.Context, actorID string) (string, bool) {
	id, err := g.store.CreateSession(ctx, actorID)
	if err != nil {
		g.degrade(ctx, "create_session", err, "actor_id", actorID)
		return "", false
	}
	return id, true
}

// AttachSessionToFlow records the flow association and initial pointer.
func (g *Gateway) AttachSessionToFlow(ctx context.Context, sessionID, flowID, nodeID string) bool {
	if err := g.store.AttachSessionToFlow(ctx, sessionID, flowID, nodeID); err != nil {
		g.degrade(ctx, "attach_session", err, "session_id", sessionID, "flow_id", flowID, "node_id", nodeID)
		return false
	}
	return true
}

// InsertMessage appends a message. For bot messages nodeID is the node whose
// text is echoed.
func (g *Gateway) InsertMessage(ctx context.Context, sessionID, text string, role domain.Role, nodeID string) (string, bool) {
	id, err := g.store.InsertMessage(ctx, sessionID, text, role, nodeID)
	if err != nil {
		g.degrade(ctx, "insert_message", err, "session_id", sessionID, "role", role, "node_id", nodeID)
		return "", false
	}
	return id, true
}

// UpdateCurrentNode overwrites the session's pointer.
func (g *Gateway) UpdateCurrentNode(ctx context.Context, sessionID, nodeID string) bool {
	if err := g.store.UpdateCurrentNode(ctx, sessionID, nodeID); err != nil {
		g.degrade(ctx, "update_current_node", err, "session_id", sessionID, "node_id", nodeID)
		return false
	}
	return true
}

// EndSession flips the session to ended.
func (g *Gateway) EndSession(ctx context.Context, sessionID string) bool {
	if err := g.store.EndSession(ctx, sessionID); err != nil {
		g.degrade(ctx, "end_session", err, "session_id", sessionID)
		return false
	}
	return true
}

// FetchEndNodeText locates the flow's terminal node, if one exists. Its Text
// is the closing message of a session.
func (g *Gateway) FetchEndNodeText(ctx context.Context, flowID string) (domain.Node, bool) {
	n, err := g.store.FetchEndNode(ctx, flowID)
	if err != nil {
		g.degrade(ctx, "fetch_end_node", err, "flow_id", flowID)
		return domain.Node{}, false
	}
	return n, true
}

// FetchSessionMessages returns the full, time-ordered history.
func (g *Gateway) FetchSessionMessages(ctx context.Context, sessionID string) []domain.Message {
	msgs, err := g.store.FetchSessionMessages(ctx, sessionID)
	if err != nil {
		g.degrade(ctx, "fetch_session_messages", err, "session_id", sessionID)
		return nil
	}
	return msgs
}

// FetchCurrentNode returns the node the session points at.
func (g *Gateway) FetchCurrentNode(ctx context.Context, sessionID string) (domain.Node, bool) {
	n, err := g.store.FetchCurrentNode(ctx, sessionID)
	if err != nil {
		g.degrade(ctx, "fetch_current_node", err, "session_id", sessionID)
		return domain.Node{}, false
	}
	return n, true
}

// FetchSession returns the session record.
func (g *Gateway) FetchSession(ctx context.Context, sessionID string) (domain.Session, bool) {
	s, err := g.store.FetchSession(ctx, sessionID)
	if err != nil {
		g.degrade(ctx, "fetch_session", err, "session_id", sessionID)
		return domain.Session{}, false
	}
	return s, true
}

// FetchUserSessions lists an actor's sessions for conversation-list views.
func (g *Gateway) FetchUserSessions(ctx context.Context, actorID string) []domain.SessionSummary {
	sessions, err := g.store.FetchUserSessions(ctx, actorID)
	if err != nil {
		g.degrade(ctx, "fetch_user_sessions", err, "actor_id", actorID)
		return nil
	}
	return sessions
}
