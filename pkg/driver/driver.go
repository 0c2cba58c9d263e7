package driver

import (
	"context"
	"fmt"

	"github.com/aretw0/pressline/pkg/gateway"
)

// Kind tags the driver variant.
type Kind string

const (
	KindScripted  Kind = "scripted"
	KindPersisted Kind = "persisted"
)

// Reply is the outcome of one user turn.
type Reply struct {
	Messages     []string
	QuickReplies []string
}

// Driver is the uniform conversation contract. It is sealed: only Scripted
// and Persisted implement it.
type Driver interface {
	Kind() Kind
	Initial(ctx context.Context, vars map[string]any) []string
	Respond(ctx context.Context, vars map[string]any, input string) Reply
	End(ctx context.Context, sessionID string) error

	sealed()
}

// ScriptedFlow is the externally supplied shape of an in-memory flow.
// Implementations must be deterministic.
type ScriptedFlow interface {
	Initial(ctx context.Context, vars map[string]any) []string
	Respond(ctx context.Context, vars map[string]any, input string) Reply
	QuickReplies() []string
}

// Forker is implemented by scripted flows that keep per-conversation state.
// Fork returns an independent copy positioned at the start of the flow, so
// two conversations of one flow never share a position.
type Forker interface {
	Fork() ScriptedFlow
}

// Scripted adapts a ScriptedFlow to the Driver contract. It adds no state.
type Scripted struct {
	flow ScriptedFlow
}

// NewScripted wraps a scripted flow.
func NewScripted(flow ScriptedFlow) *Scripted {
	return &Scripted{flow: flow}
}

func (d *Scripted) Kind() Kind { return KindScripted }

func (d *Scripted) Initial(ctx context.Context, vars map[string]any) []string {
	return d.flow.Initial(ctx, vars)
}

func (d *Scripted) Respond(ctx context.Context, vars map[string]any, input string) Reply {
	return d.flow.Respond(ctx, vars, input)
}

// QuickReplies exposes the wrapped flow's current quick-reply labels.
func (d *Scripted) QuickReplies() []string {
	return d.flow.QuickReplies()
}

// End is a no-op: scripted conversations have nothing to tear down.
func (d *Scripted) End(ctx context.Context, sessionID string) error {
	return nil
}

func (d *Scripted) sealed() {}

// Persisted is the driver of store-backed flows.
type Persisted struct {
	gateway *gateway.Gateway
}

// NewPersisted creates a persisted driver over the gateway.
func NewPersisted(gw *gateway.Gateway) *Persisted {
	return &Persisted{gateway: gw}
}

func (d *Persisted) Kind() Kind { return KindPersisted }

// Initial returns nothing. Store-backed flows open through the conversation
// actions.
func (d *Persisted) Initial(ctx context.Context, vars map[string]any) []string {
	return nil
}

// Respond returns nothing. Store-backed turns are store mutations performed
// by the conversation actions.
func (d *Persisted) Respond(ctx context.Context, vars map[string]any, input string) Reply {
	return Reply{}
}

// End marks the session ended in the store.
func (d *Persisted) End(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if !d.gateway.EndSession(ctx, sessionID) {
		return fmt.Errorf("driver: end session %q failed", sessionID)
	}
	return nil
}

func (d *Persisted) sealed() {}
