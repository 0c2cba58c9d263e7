package ports

import (
	"context"

	"github.com/aretw0/pressline/pkg/domain"
)

// DialogStore is the narrow contract the conversation core needs from a
// relational store. It holds no business logic.
//
// Lookups that miss return a domain.Err*NotFound sentinel. Implementations
// must be safe for concurrent use.
type DialogStore interface {
	// FetchInitialNode returns the unique initial node of a flow.
	FetchInitialNode(ctx context.Context, flowID string) (domain.Node, error)

	// FetchEndNode returns the terminal node of a flow.
	FetchEndNode(ctx context.Context, flowID string) (domain.Node, error)

	// FetchNode returns a node by ID.
	FetchNode(ctx context.Context, nodeID string) (domain.Node, error)

	// FetchOptions returns the options leaving a node, ordered by position.
	FetchOptions(ctx context.Context, nodeID string) ([]domain.Option, error)

	// CreateSession opens an active, unattached session for an actor.
	CreateSession(ctx context.Context, actorID string) (string, error)

	// AttachSessionToFlow records the flow association and the initial
	// current-node pointer. A session is attached once.
	AttachSessionToFlow(ctx context.Context, sessionID, flowID, nodeID string) error

	// FetchSession returns a session record.
	FetchSession(ctx context.Context, sessionID string) (domain.Session, error)

	// FetchCurrentNode returns the node the session currently points at.
	FetchCurrentNode(ctx context.Context, sessionID string) (domain.Node, error)

	// UpdateCurrentNode overwrites the session's pointer. It returns
	// domain.ErrSessionEnded for ended sessions and domain.ErrNodeNotInFlow
	// for nodes outside the session's flow.
	UpdateCurrentNode(ctx context.Context, sessionID, nodeID string) error

	// EndSession sets the status to ended and records the end time.
	// Ending an ended session is a no-op.
	EndSession(ctx context.Context, sessionID string) error

	// FetchUserSessions lists an actor's sessions, most recently updated first.
	FetchUserSessions(ctx context.Context, actorID string) ([]domain.SessionSummary, error)

	// InsertMessage appends a message and returns its ID. nodeID may be empty.
	InsertMessage(ctx context.Context, sessionID, text string, role domain.Role, nodeID string) (string, error)

	// FetchSessionMessages returns the full history in replay order.
	FetchSessionMessages(ctx context.Context, sessionID string) ([]domain.Message, error)
}

// FlowAuthor writes authored flow definitions. The engine itself never
// mutates flows; this is used by seeding and fixtures.
type FlowAuthor interface {
	// SaveFlow validates and replaces a flow with its nodes and options.
	SaveFlow(ctx context.Context, flow domain.Flow, nodes []domain.Node, options []domain.Option) error
}
