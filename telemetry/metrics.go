package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Instruments records action and search activity. It satisfies
// action.Observer and router.SearchObserver. A nil *Instruments is a
// valid no-op.
type Instruments struct {
	invocations metric.Int64Counter
	duration    metric.Float64Histogram
	evictions   metric.Int64Counter
	searches    metric.Int64Counter
	results     metric.Int64Histogram
}

// NewInstruments creates the instruments on meter, or on the global meter
// provider when meter is nil.
func NewInstruments(meter metric.Meter) (*Instruments, error) {
	if meter == nil {
		meter = otel.Meter("supportbot")
	}

	invocations, err := meter.Int64Counter(
		"supportbot.actions.invocations",
		metric.WithDescription("Dispatched action invocations by action and status"),
	)
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram(
		"supportbot.actions.duration",
		metric.WithDescription("Effect handler duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	evictions, err := meter.Int64Counter(
		"supportbot.audit.evictions",
		metric.WithDescription("Audit records evicted by retention"),
	)
	if err != nil {
		return nil, err
	}
	searches, err := meter.Int64Counter(
		"supportbot.search.queries",
		metric.WithDescription("Knowledge searches by engine"),
	)
	if err != nil {
		return nil, err
	}
	results, err := meter.Int64Histogram(
		"supportbot.search.results",
		metric.WithDescription("Hits returned per knowledge search"),
	)
	if err != nil {
		return nil, err
	}

	return &Instruments{
		invocations: invocations,
		duration:    duration,
		evictions:   evictions,
		searches:    searches,
		results:     results,
	}, nil
}

// InvocationObserved counts one dispatched invocation.
func (m *Instruments) InvocationObserved(ctx context.Context, action, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("status", status),
	)
	m.invocations.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}

// AuditEvicted counts one evicted audit record.
func (m *Instruments) AuditEvicted(ctx context.Context) {
	if m == nil {
		return
	}
	m.evictions.Add(ctx, 1)
}

// SearchObserved counts one knowledge search.
func (m *Instruments) SearchObserved(ctx context.Context, engine string, results int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("engine", engine))
	m.searches.Add(ctx, 1, attrs)
	m.results.Record(ctx, int64(results), attrs)
}
