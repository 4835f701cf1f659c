package effects

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jonwraymond/supportbot/action"
)

// Escalation acknowledges hand-offs to a human agent. It serves custom
// actions such as escalate_to_human.
type Escalation struct {
	Logger *slog.Logger

	mu  sync.Mutex
	seq int
}

// Escalate handles custom escalation invocations. A reason is optional;
// the action name stands in when none is given.
func (e *Escalation) Escalate(ctx context.Context, inv action.Invocation) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	reason := stringArg(inv.Arguments, "reason")
	if reason == "" {
		reason = inv.Action.Name
	}

	e.mu.Lock()
	e.seq++
	id := fmt.Sprintf("ESC-%04d", e.seq)
	e.mu.Unlock()

	logger(e.Logger).WarnContext(ctx, "escalated to human agent",
		slog.String("escalation_id", id),
		slog.String("action", inv.Action.Name),
		slog.String("reason", reason),
	)

	return map[string]any{
		"escalationId": id,
		"status":       "queued",
		"message":      "A human agent will follow up shortly.",
	}, nil
}
