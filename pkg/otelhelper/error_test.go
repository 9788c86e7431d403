package otelhelper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSetError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	_, span := StartSpan(context.Background(), provider.Tracer("test"), "workflow.create",
		attribute.String(WorkflowIDKey, "wf-1"))
	SetError(span, errors.New("boom"), attribute.String(WorkflowNameKey, "Support Bot"))
	span.End()

	spans := recorder.Ended()
	if assert.Len(t, spans, 1) {
		assert.Equal(t, "workflow.create", spans[0].Name())
		assert.Equal(t, codes.Error, spans[0].Status().Code)
		assert.Equal(t, "boom", spans[0].Status().Description)
		assert.Contains(t, spans[0].Attributes(), attribute.String(WorkflowIDKey, "wf-1"))
	}
}

func TestNoopTracer(t *testing.T) {
	_, span := StartSpan(context.Background(), NoopTracer(), "noop")
	defer span.End()

	assert.False(t, span.SpanContext().IsValid())
}
