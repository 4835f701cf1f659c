package effects

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/jonwraymond/supportbot/action"
)

// Channels lists the delivery channels Notifier accepts.
var Channels = []string{"email", "sms", "in-app"}

const DefaultChannel = "email"

// Notifier delivers notifications by logging them.
type Notifier struct {
	Logger *slog.Logger
}

// Notify handles notify invocations.
func (n *Notifier) Notify(ctx context.Context, inv action.Invocation) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	message, err := requireString(inv.Arguments, "message")
	if err != nil {
		return nil, err
	}
	channel := stringArg(inv.Arguments, "channel")
	if channel == "" {
		channel = DefaultChannel
	}
	if !slices.Contains(Channels, channel) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidChannel, channel)
	}
	recipient := stringArg(inv.Arguments, "user_id")
	if recipient == "" {
		recipient = stringArg(inv.Arguments, "recipient")
	}
	if recipient == "" {
		recipient = "user"
	}

	logger(n.Logger).InfoContext(ctx, "notification sent",
		slog.String("invocation_id", inv.ID),
		slog.String("channel", channel),
		slog.String("recipient", recipient),
		slog.Int("length", len(message)),
	)

	return map[string]any{
		"delivered": true,
		"channel":   channel,
		"recipient": recipient,
	}, nil
}

func logger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
