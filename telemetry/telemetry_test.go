package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInit_None(t *testing.T) {
	shutdown, err := Init("test-service", "v0.0.1", Config{Exporter: ExporterNone})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestInit_Stdout(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Init("test-service", "v0.0.1", Config{Exporter: ExporterStdout, Output: &buf})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if shutdown == nil {
		t.Fatal("Shutdown function should not be nil")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}

func TestInit_Errors(t *testing.T) {
	if _, err := Init("svc", "v1", Config{Exporter: ExporterOTLP}); err == nil {
		t.Error("expected error for otlp without endpoint")
	}
	if _, err := Init("svc", "v1", Config{Exporter: "carrier-pigeon"}); err == nil {
		t.Error("expected error for unknown exporter")
	}
}

func TestConfigureSlog_AddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	defer slog.SetDefault(prev)

	logger := ConfigureSlog(&buf, LogOptions{Level: "debug", Format: "json", Service: "supportbot", Version: "v1"})

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	logger.InfoContext(ctx, "traced")
	span.End()

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if rec["trace_id"] != span.SpanContext().TraceID().String() {
		t.Errorf("missing trace_id: %v", rec)
	}
	if rec["span_id"] != span.SpanContext().SpanID().String() {
		t.Errorf("missing span_id: %v", rec)
	}
	if rec["service"] != "supportbot" || rec["version"] != "v1" {
		t.Errorf("missing service attributes: %v", rec)
	}
}

func TestConfigureSlog_KeepsCallerTraceID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	defer slog.SetDefault(prev)

	logger := ConfigureSlog(&buf, LogOptions{Format: "json"})
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	logger.InfoContext(ctx, "traced", "trace_id", "caller")
	span.End()

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if rec["trace_id"] != "caller" {
		t.Errorf("trace_id overwritten: %v", rec)
	}
	if rec["span_id"] != span.SpanContext().SpanID().String() {
		t.Errorf("missing span_id: %v", rec)
	}
	if _, ok := rec["service"]; ok {
		t.Errorf("unexpected service attribute: %v", rec)
	}
}

func TestConfigureSlog_LevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	defer slog.SetDefault(prev)

	logger := ConfigureSlog(&buf, LogOptions{Level: "warn", Format: "text"})
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(out, "msg=shown") {
		t.Errorf("expected text record, got %q", out)
	}
	if strings.Contains(out, "trace_id") {
		t.Error("no trace_id expected without a span")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func sumCounter(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s is not an int64 sum", name)
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	return 0
}

func TestInstruments(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	m, err := NewInstruments(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewInstruments failed: %v", err)
	}
	ctx := context.Background()
	m.InvocationObserved(ctx, "create_ticket", "success", 5*time.Millisecond)
	m.InvocationObserved(ctx, "create_ticket", "failed", time.Millisecond)
	m.AuditEvicted(ctx)
	m.SearchObserved(ctx, "token", 3)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if got := sumCounter(t, rm, "supportbot.actions.invocations"); got != 2 {
		t.Errorf("invocations = %d, want 2", got)
	}
	if got := sumCounter(t, rm, "supportbot.audit.evictions"); got != 1 {
		t.Errorf("evictions = %d, want 1", got)
	}
	if got := sumCounter(t, rm, "supportbot.search.queries"); got != 1 {
		t.Errorf("searches = %d, want 1", got)
	}
}

func TestInstruments_NilIsNoop(t *testing.T) {
	var m *Instruments
	ctx := context.Background()
	m.InvocationObserved(ctx, "a", "success", time.Second)
	m.AuditEvicted(ctx)
	m.SearchObserved(ctx, "token", 0)
}
