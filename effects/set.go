package effects

import (
	"log/slog"

	"github.com/jonwraymond/supportbot/action"
)

// Options configures NewSet.
type Options struct {
	Logger *slog.Logger
	// TicketWebhook, when set, serves create_ticket instead of the
	// in-memory desk.
	TicketWebhook *Webhook
	// Records seeds the record store.
	Records []Record
}

// Set is the bundle of handlers the binary runs with.
type Set struct {
	Tickets    *TicketDesk
	Records    *RecordStore
	Notifier   *Notifier
	Escalation *Escalation
	Webhook    *Webhook
}

// NewSet builds a Set from opts.
func NewSet(opts Options) *Set {
	return &Set{
		Tickets:    NewTicketDesk(),
		Records:    NewRecordStore(opts.Records...),
		Notifier:   &Notifier{Logger: opts.Logger},
		Escalation: &Escalation{Logger: opts.Logger},
		Webhook:    opts.TicketWebhook,
	}
}

// Handlers binds every effect kind. Custom actions escalate.
func (s *Set) Handlers() action.Handlers {
	create := s.Tickets.CreateTicket
	if s.Webhook != nil {
		create = s.Webhook.Post
	}
	return action.Handlers{
		ByKind: map[action.EffectKind]action.Handler{
			action.EffectCreateTicket: create,
			action.EffectUpdateRecord: s.Records.UpdateRecord,
			action.EffectNotify:       s.Notifier.Notify,
			action.EffectCustom:       s.Escalation.Escalate,
		},
	}
}

// Defaults returns the handlers of a fresh Set.
func Defaults(opts Options) action.Handlers {
	return NewSet(opts).Handlers()
}
