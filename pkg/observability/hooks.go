package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/pressline/pkg/domain"
)

// LogHooks returns hooks that write every lifecycle event to logger.
func LogHooks(logger *slog.Logger) domain.Hooks {
	log := func(ctx context.Context, e domain.Event) {
		logger.InfoContext(ctx, string(e.Type),
			"session_id", e.SessionID,
			"flow_id", e.FlowID,
			"from_node_id", e.FromNodeID,
			"to_node_id", e.ToNodeID,
		)
	}
	return domain.Hooks{
		OnSessionStart: log,
		OnTransition:   log,
		OnFallback:     log,
		OnSessionEnd:   log,
	}
}

// Combine merges hooks so each event reaches every set, in order.
func Combine(sets ...domain.Hooks) domain.Hooks {
	fanout := func(pick func(domain.Hooks) func(context.Context, domain.Event)) func(context.Context, domain.Event) {
		var fns []func(context.Context, domain.Event)
		for _, h := range sets {
			if fn := pick(h); fn != nil {
				fns = append(fns, fn)
			}
		}
		if len(fns) == 0 {
			return nil
		}
		return func(ctx context.Context, e domain.Event) {
			for _, fn := range fns {
				fn(ctx, e)
			}
		}
	}
	return domain.Hooks{
		OnSessionStart: fanout(func(h domain.Hooks) func(context.Context, domain.Event) { return h.OnSessionStart }),
		OnTransition:   fanout(func(h domain.Hooks) func(context.Context, domain.Event) { return h.OnTransition }),
		OnFallback:     fanout(func(h domain.Hooks) func(context.Context, domain.Event) { return h.OnFallback }),
		OnSessionEnd:   fanout(func(h domain.Hooks) func(context.Context, domain.Event) { return h.OnSessionEnd }),
	}
}
