// Package telemetry configures structured logging and OpenTelemetry for
// the supportbot binary.
//
// [ConfigureSlog] installs a log/slog default logger whose records carry
// trace_id and span_id when logged with a span in context. [Init] installs
// tracer and meter providers for the configured exporter, and
// [NewInstruments] creates the counters the action registry and the router
// report to.
package telemetry
