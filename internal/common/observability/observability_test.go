package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type nopLogger struct{}

func (nopLogger) Info(string, map[string]interface{}) {}
func (nopLogger) Warn(string, map[string]interface{}) {}

func TestNew_WithoutJaeger(t *testing.T) {
	o := New(Options{ServiceName: "fep-agent-test"}, nopLogger{})
	defer o.Shutdown()

	ctx := context.Background()
	o.RecordJobProcessed(ctx, "answer-query", "completed")
	o.RecordJobDuration(ctx, "answer-query", 25*time.Millisecond, "completed")
	o.RecordStage(ctx, "classify", time.Millisecond)

	_, span := o.StartSpan(ctx, "route", map[string]string{"tool": "rag_tool"})
	EndSpan(span, nil)
}

func TestStartSpan_RecordsErrors(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	o := &Observability{tracer: tp.Tracer("test")}

	_, span := o.StartSpan(context.Background(), "rag_tool", map[string]string{"query": "eligibility"})
	EndSpan(span, errors.New("index down"))

	ended := recorder.Ended()
	if assert.Len(t, ended, 1) {
		assert.Equal(t, "rag_tool", ended[0].Name())
		assert.Equal(t, codes.Error, ended[0].Status().Code)
		assert.Len(t, ended[0].Events(), 1)
	}
}

func TestNoop(t *testing.T) {
	o := NewNoop()
	o.RecordJobProcessed(context.Background(), "x", "y")
	_, span := o.StartSpan(context.Background(), "noop", nil)
	EndSpan(span, nil)
	o.Shutdown()
}
