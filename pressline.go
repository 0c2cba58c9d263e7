package pressline

import (
	"context"
	"log/slog"

	"github.com/aretw0/pressline/internal/logging"
	"github.com/aretw0/pressline/pkg/conversation"
	"github.com/aretw0/pressline/pkg/domain"
	"github.com/aretw0/pressline/pkg/driver"
	"github.com/aretw0/pressline/pkg/gateway"
	"github.com/aretw0/pressline/pkg/ports"
	"github.com/aretw0/pressline/pkg/session"
)

// Version is the release of the engine. Builds override it with -ldflags.
var Version = "0.1.0"

// Engine is the high-level entry point of the library.
type Engine struct {
	gateway  *gateway.Gateway
	actions  *conversation.Actions
	switcher *conversation.Switcher

	registry  *driver.Registry
	persisted []string
	hooks     domain.Hooks
	locks     *session.Locks
	logger    *slog.Logger
}

// Option configures the Engine.
type Option func(*Engine)

// WithRegistry sets the scripted flows.
func WithRegistry(r *driver.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithPersistedFlows names the store-backed flows.
func WithPersistedFlows(flowIDs ...string) Option {
	return func(e *Engine) {
		e.persisted = append(e.persisted, flowIDs...)
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(h domain.Hooks) Option {
	return func(e *Engine) {
		e.hooks = h
	}
}

// WithLocks sets the session lock table, for example one backed by Redis.
func WithLocks(l *session.Locks) Option {
	return func(e *Engine) {
		e.locks = l
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an engine over store.
func New(store ports.DialogStore, opts ...Option) *Engine {
	e := &Engine{
		registry: driver.NewRegistry(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.locks == nil {
		e.locks = session.NewLocks(session.WithLogger(e.logger))
	}

	e.gateway = gateway.New(store, gateway.WithLogger(e.logger))
	e.actions = conversation.NewActions(e.gateway,
		conversation.WithRegistry(e.registry),
		conversation.WithPersistedFlows(e.persisted...),
		conversation.WithLifecycleHooks(e.hooks),
		conversation.WithLocks(e.locks),
		conversation.WithLogger(e.logger),
	)
	e.switcher = conversation.NewSwitcher(e.actions)
	return e
}

// Actions returns the stateless operation layer.
func (e *Engine) Actions() *conversation.Actions {
	return e.actions
}

// Switcher returns the conversation switcher.
func (e *Engine) Switcher() *conversation.Switcher {
	return e.switcher
}

// NewController creates a controller for one UI acting as actorID.
func (e *Engine) NewController(actorID string) *conversation.Controller {
	return conversation.NewController(e.actions, actorID)
}

// Sessions lists the store-backed conversations of actorID, most recent first.
func (e *Engine) Sessions(ctx context.Context, actorID string) []domain.SessionSummary {
	return e.gateway.FetchUserSessions(ctx, actorID)
}
