package telemetry

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// LogOptions configures ConfigureSlog.
type LogOptions struct {
	Level  string // debug, info, warn, error
	Format string // json or text

	// Service and Version, when set, are attached to every record.
	Service string
	Version string
}

// ConfigureSlog sets the global slog logger. Records logged with a context
// that carries a valid span get trace_id and span_id attributes.
func ConfigureSlog(output io.Writer, opts LogOptions) *slog.Logger {
	var handler slog.Handler = &spanHandler{next: baseHandler(output, opts)}
	var attrs []slog.Attr
	if opts.Service != "" {
		attrs = append(attrs, slog.String("service", opts.Service))
	}
	if opts.Version != "" {
		attrs = append(attrs, slog.String("version", opts.Version))
	}
	if len(attrs) > 0 {
		handler = handler.WithAttrs(attrs)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func baseHandler(output io.Writer, opts LogOptions) slog.Handler {
	ho := &slog.HandlerOptions{Level: ParseLogLevel(opts.Level)}
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		return slog.NewJSONHandler(output, ho)
	}
	return slog.NewTextHandler(output, ho)
}

type spanHandler struct {
	next slog.Handler
}

func (h *spanHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *spanHandler) Handle(ctx context.Context, record slog.Record) error {
	if ctx == nil {
		return h.next.Handle(ctx, record)
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return h.next.Handle(ctx, record)
	}

	var hasTrace, hasSpan bool
	record.Attrs(func(attr slog.Attr) bool {
		hasTrace = hasTrace || attr.Key == "trace_id"
		hasSpan = hasSpan || attr.Key == "span_id"
		return !(hasTrace && hasSpan)
	})
	if !hasTrace {
		record.AddAttrs(slog.String("trace_id", sc.TraceID().String()))
	}
	if !hasSpan {
		record.AddAttrs(slog.String("span_id", sc.SpanID().String()))
	}
	return h.next.Handle(ctx, record)
}

func (h *spanHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &spanHandler{next: h.next.WithAttrs(attrs)}
}

func (h *spanHandler) WithGroup(name string) slog.Handler {
	return &spanHandler{next: h.next.WithGroup(name)}
}

// ParseLogLevel maps debug, info, warn and error to slog levels. Anything
// else is info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
