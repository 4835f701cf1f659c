// Package action holds the bot's side-effecting operations: validated
// action definitions, the registry that dispatches invocations to injected
// effect handlers, and the bounded audit log every dispatched invocation
// is recorded in.
//
// The registry is polymorphic over a fixed capability set of effect kinds
// (create_ticket, update_record, notify, custom). Concrete handlers are
// supplied through [Handlers] at construction, so the registry itself
// performs no I/O.
//
// # Usage
//
//	reg, err := action.NewRegistry(defs, action.Handlers{
//	    ByKind: map[action.EffectKind]action.Handler{
//	        action.EffectCreateTicket: desk.CreateTicket,
//	    },
//	}, action.Options{Retention: 500, Timeout: 5 * time.Second})
//
//	res, err := reg.Invoke(ctx, "create_ticket", map[string]any{
//	    "description": "DB error",
//	})
//
// # Errors
//
// Invoke fails with *[Error]. Its Kind is one of KindUnknownAction,
// KindInvalidArguments or KindEffectFailed, and errors.Is matches the
// corresponding sentinel. A handler that exceeds the timeout fails with
// KindEffectFailed wrapping [ErrTimeout].
//
// # Thread Safety
//
// Definitions are immutable after construction. Audit appends and
// evictions are serialized, so concurrent invocations produce a total
// order of records.
package action
