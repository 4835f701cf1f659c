// Package effects provides the effect handlers the supportbot binary binds
// to action definitions.
//
// Each type exposes an [action.Handler]-shaped method:
//
//   - [TicketDesk.CreateTicket] for create_ticket
//   - [RecordStore.UpdateRecord] for update_record
//   - [Notifier.Notify] for notify
//   - [Escalation.Escalate] for custom actions
//   - [Webhook.Post] forwards an invocation to an HTTP endpoint
//
// The in-memory stores are safe for concurrent use. [NewSet] wires them
// together and [Set.Handlers] returns the binding for action.NewRegistry.
package effects
