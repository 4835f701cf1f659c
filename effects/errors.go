package effects

import "errors"

// Error values returned by the handlers. The registry wraps them in
// action.Error with KindEffectFailed.
var (
	ErrMissingArgument = errors.New("missing argument")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidChannel  = errors.New("invalid channel")
	ErrRecordNotFound  = errors.New("record not found")
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrWebhookStatus   = errors.New("webhook returned non-success status")
)
