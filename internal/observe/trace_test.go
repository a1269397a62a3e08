package observe

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func traceSetup(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	orig := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(orig) })
	return exp
}

func TestStartSpan_RecordsUnderModuleScope(t *testing.T) {
	exp := traceSetup(t)

	_, span := StartSpan(context.Background(), "interpret")
	span.End()

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("spans recorded = %d, want 1", len(spans))
	}
	if spans[0].Name != "interpret" {
		t.Errorf("span name = %q, want interpret", spans[0].Name)
	}
	if got := spans[0].InstrumentationScope.Name; got != scopeName {
		t.Errorf("scope = %q, want %q", got, scopeName)
	}
}

func TestCorrelationID_InsideAndOutsideSpan(t *testing.T) {
	traceSetup(t)

	if got := CorrelationID(context.Background()); got != "" {
		t.Errorf("CorrelationID outside a span = %q, want empty", got)
	}

	ctx, span := StartSpan(context.Background(), "op")
	defer span.End()

	id := CorrelationID(ctx)
	if len(id) != 32 {
		t.Errorf("trace ID length = %d, want 32 hex chars", len(id))
	}
}

func TestLogger_CarriesTraceAttributes(t *testing.T) {
	traceSetup(t)

	var buf bytes.Buffer
	orig := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(orig) })

	ctx, span := StartSpan(context.Background(), "op")
	defer span.End()

	Logger(ctx).Info("sale recorded")

	out := buf.String()
	if !strings.Contains(out, "trace_id="+CorrelationID(ctx)) {
		t.Errorf("log output missing trace_id: %q", out)
	}
	if !strings.Contains(out, "span_id=") {
		t.Errorf("log output missing span_id: %q", out)
	}
}

func TestLogger_PlainOutsideSpan(t *testing.T) {
	var buf bytes.Buffer
	orig := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(orig) })

	Logger(context.Background()).Info("startup")

	if strings.Contains(buf.String(), "trace_id") {
		t.Errorf("log outside a span should not carry trace_id: %q", buf.String())
	}
}
