package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newInMemoryExporter(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(nil) })

	return exp
}

func TestStartSpan(t *testing.T) {
	exp := newInMemoryExporter(t)

	ctx, span := StartSpan(context.Background(), "create_order")
	span.End()

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != "create_order" {
		t.Errorf("span name = %s, want create_order", spans[0].Name)
	}

	if TraceID(ctx) == "" {
		t.Error("expected context to carry a trace id")
	}
	if SpanID(ctx) == "" {
		t.Error("expected context to carry a span id")
	}
}

func TestAddSpanAttributes(t *testing.T) {
	exp := newInMemoryExporter(t)

	_, span := StartSpan(context.Background(), "op")
	AddSpanAttributes(span, attribute.String("order.id", "order-1"))
	span.End()

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}

	found := false
	for _, attr := range spans[0].Attributes {
		if attr.Key == "order.id" && attr.Value.AsString() == "order-1" {
			found = true
		}
	}
	if !found {
		t.Error("expected order.id attribute on the span")
	}
}

func TestRecordSpanError(t *testing.T) {
	exp := newInMemoryExporter(t)

	_, span := StartSpan(context.Background(), "op")
	RecordSpanError(span, errors.New("boom"))
	span.End()

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("status code = %v, want Error", spans[0].Status.Code)
	}
	if spans[0].Status.Description != "boom" {
		t.Errorf("status description = %q, want boom", spans[0].Status.Description)
	}
	if len(spans[0].Events) == 0 {
		t.Error("expected a recorded error event")
	}
}

func TestSetSpanSuccess(t *testing.T) {
	exp := newInMemoryExporter(t)

	_, span := StartSpan(context.Background(), "op")
	SetSpanSuccess(span)
	span.End()

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status.Code != codes.Ok {
		t.Errorf("status code = %v, want Ok", spans[0].Status.Code)
	}
}

func TestTraceIDsWithoutSpan(t *testing.T) {
	ctx := context.Background()

	if got := TraceID(ctx); got != "" {
		t.Errorf("TraceID() = %q, want empty", got)
	}
	if got := SpanID(ctx); got != "" {
		t.Errorf("SpanID() = %q, want empty", got)
	}
}

func TestNilSpanHelpers(t *testing.T) {
	// Must not panic.
	AddSpanAttributes(nil)
	RecordSpanError(nil, errors.New("boom"))
	RecordSpanError(nil, nil)
	SetSpanSuccess(nil)
}
