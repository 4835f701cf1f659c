package action

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout bounds a handler call when Options does not set one.
const DefaultTimeout = 10 * time.Second

// Invocation is the transient record of one call, handed to the effect
// handler. Arguments is the handler's own copy.
type Invocation struct {
	ID        string
	Action    Definition
	Arguments map[string]any
	Timestamp time.Time
}

// Handler performs an action's real-world side effect.
// It returns the payload reported back to the caller, or the cause of the
// failure. Handlers must honour ctx cancellation where they block.
type Handler func(ctx context.Context, inv Invocation) (any, error)

// Handlers binds effect handlers to definitions. ByName takes precedence
// over ByKind, which lets several custom actions carry different handlers.
type Handlers struct {
	ByKind map[EffectKind]Handler
	ByName map[string]Handler
}

func (h Handlers) resolve(def Definition) (Handler, bool) {
	if fn, ok := h.ByName[def.Name]; ok && fn != nil {
		return fn, true
	}
	if fn, ok := h.ByKind[def.EffectKind]; ok && fn != nil {
		return fn, true
	}
	return nil, false
}

// Observer receives invocation outcomes, typically for metrics.
type Observer interface {
	InvocationObserved(ctx context.Context, action, status string, elapsed time.Duration)
	AuditEvicted(ctx context.Context)
}

// Options configures a Registry.
type Options struct {
	// Retention bounds the audit log. Default: 1000
	Retention int

	// Timeout bounds every handler call. Default: 10s
	Timeout time.Duration

	// Logger receives invocation logs. Default: slog.Default()
	Logger *slog.Logger

	// Observer is notified of every dispatched invocation. Optional.
	Observer Observer

	// Now and NewID are overridable for tests.
	Now   func() time.Time
	NewID func() string
}

// Result is the outcome of a successful invocation.
type Result struct {
	Status       Status    `json:"status"`
	InvocationID string    `json:"invocationId"`
	Action       string    `json:"action"`
	Payload      any       `json:"payload,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Stats describes the registry's audit state.
type Stats struct {
	Actions         int
	AuditRetained   int
	AuditCapacity   int
	TotalDispatched uint64
	Evicted         uint64
}

type binding struct {
	def       Definition
	handler   Handler
	validator *ArgumentValidator
}

// Registry holds validated action definitions and dispatches invocations.
type Registry struct {
	opts     Options
	logger   *slog.Logger
	order    []string
	bindings map[string]binding
	audit    *auditLog
}

// NewRegistry validates defs and binds each to a handler. A definition
// without a handler fails with ErrHandlerNotFound.
func NewRegistry(defs []Definition, handlers Handlers, opts Options) (*Registry, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Registry{
		opts:     opts,
		logger:   logger.With("component", "action"),
		order:    make([]string, 0, len(defs)),
		bindings: make(map[string]binding, len(defs)),
		audit:    newAuditLog(opts.Retention),
	}

	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return nil, err
		}
		if _, exists := r.bindings[def.Name]; exists {
			return nil, fmt.Errorf("%w: duplicate action %s", ErrInvalidAction, def.Name)
		}
		handler, ok := handlers.resolve(def)
		if !ok {
			return nil, fmt.Errorf("%w: %s (%s)", ErrHandlerNotFound, def.Name, def.EffectKind)
		}
		validator, err := NewArgumentValidator(def)
		if err != nil {
			return nil, err
		}
		r.bindings[def.Name] = binding{def: def.clone(), handler: handler, validator: validator}
		r.order = append(r.order, def.Name)
	}

	return r, nil
}

// Has reports whether an action with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.bindings[name]
	return ok
}

// Definition returns the named definition.
func (r *Registry) Definition(name string) (Definition, bool) {
	b, ok := r.bindings[name]
	if !ok {
		return Definition{}, false
	}
	return b.def.clone(), true
}

// Definitions returns every definition in configuration order.
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.bindings[name].def.clone())
	}
	return out
}

// Summaries returns the introspection view of every definition in
// configuration order.
func (r *Registry) Summaries() []Summary {
	out := make([]Summary, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.bindings[name].def.Summary())
	}
	return out
}

// Invoke resolves, validates and dispatches one invocation.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (Result, error) {
	b, ok := r.bindings[name]
	if !ok {
		return Result{}, &Error{Kind: KindUnknownAction, Action: name}
	}
	if violations := b.validator.Validate(args); len(violations) > 0 {
		return Result{}, &Error{Kind: KindInvalidArguments, Action: name, Violations: violations}
	}

	inv := Invocation{
		ID:        r.opts.NewID(),
		Action:    b.def.clone(),
		Arguments: snapshot(args),
		Timestamp: r.opts.Now(),
	}

	started := time.Now()
	payload, err := r.dispatch(ctx, b.handler, inv)
	elapsed := time.Since(started)

	rec := AuditRecord{
		InvocationID: inv.ID,
		Action:       name,
		EffectKind:   b.def.EffectKind,
		Arguments:    snapshot(args),
		Timestamp:    inv.Timestamp,
		Duration:     elapsed,
	}
	if err != nil {
		rec.Status = StatusFailed
		rec.Error = err.Error()
	} else {
		rec.Status = StatusSuccess
		rec.Result = snapshotValue(payload)
	}
	evicted := r.audit.append(rec)

	if r.opts.Observer != nil {
		r.opts.Observer.InvocationObserved(ctx, name, string(rec.Status), elapsed)
		if evicted {
			r.opts.Observer.AuditEvicted(ctx)
		}
	}

	if err != nil {
		r.logger.WarnContext(ctx, "action failed",
			"action", name, "invocation_id", inv.ID, "duration", elapsed, "error", err)
		return Result{}, &Error{Kind: KindEffectFailed, Action: name, Cause: err}
	}

	r.logger.InfoContext(ctx, "action invoked",
		"action", name, "invocation_id", inv.ID, "duration", elapsed)
	return Result{
		Status:       StatusSuccess,
		InvocationID: inv.ID,
		Action:       name,
		Payload:      payload,
		Timestamp:    inv.Timestamp,
	}, nil
}

// dispatch runs the handler in its own goroutine, bounded by the
// registry timeout and ctx. A late result from an abandoned handler is
// discarded.
func (r *Registry) dispatch(ctx context.Context, handler Handler, inv Invocation) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	type outcome struct {
		payload any
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: fmt.Errorf("handler panic: %v", p)}
			}
		}()
		payload, err := handler(ctx, inv)
		done <- outcome{payload: payload, err: err}
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, r.opts.Timeout)
		}
		return nil, ctx.Err()
	case out := <-done:
		return out.payload, out.err
	}
}

// History returns up to limit audit records, most recent first. limit <= 0
// returns every retained record.
func (r *Registry) History(limit int) []AuditRecord {
	return r.audit.recent(limit)
}

// Stats returns registry statistics.
func (r *Registry) Stats() Stats {
	retained, total, evicted, capacity := r.audit.stats()
	return Stats{
		Actions:         len(r.order),
		AuditRetained:   retained,
		AuditCapacity:   capacity,
		TotalDispatched: total,
		Evicted:         evicted,
	}
}

// snapshot deep-copies JSON-shaped argument values so neither handlers
// nor callers can alter what the audit log recorded.
func snapshot(args map[string]any) map[string]any {
	if args == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = snapshotValue(v)
	}
	return out
}

func snapshotValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return snapshot(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = snapshotValue(item)
		}
		return out
	case []string:
		return slices.Clone(t)
	case map[string]string:
		out := make(map[string]string, len(t))
		for k, s := range t {
			out[k] = s
		}
		return out
	default:
		return v
	}
}
