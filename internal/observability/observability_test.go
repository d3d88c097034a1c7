package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := Tracer
	Tracer = tp.Tracer("test")
	t.Cleanup(func() {
		Tracer = prev
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestStartCallable_RecordsOutcome(t *testing.T) {
	rec := recordSpans(t)

	span, ctx := StartCallable(context.Background(), "sendFriendRequest", 7)
	require.NotNil(t, ctx)
	span.Finish("ok", nil)

	failed, _ := StartCallable(context.Background(), "acceptFriendRequest", 9)
	failed.Finish("permission-denied", errors.New("not the recipient"))

	ended := rec.Ended()
	require.Len(t, ended, 2)

	assert.Equal(t, "callable.sendFriendRequest", ended[0].Name())
	v, ok := attrValue(ended[0].Attributes(), "actor.id")
	require.True(t, ok)
	assert.Equal(t, int64(7), v.AsInt64())
	v, ok = attrValue(ended[0].Attributes(), "outcome.code")
	require.True(t, ok)
	assert.Equal(t, "ok", v.AsString())
	assert.Equal(t, codes.Unset, ended[0].Status().Code)

	assert.Equal(t, codes.Error, ended[1].Status().Code)
	assert.Equal(t, "not the recipient", ended[1].Status().Description)
	v, _ = attrValue(ended[1].Attributes(), "outcome.code")
	assert.Equal(t, "permission-denied", v.AsString())
}

func TestSpan_TraceIDIsPropagated(t *testing.T) {
	recordSpans(t)

	parent, ctx := NewSpan(context.Background(), "parent")
	child, _ := NewSpan(ctx, "child")
	defer parent.End()
	defer child.End()

	assert.Equal(t, parent.TraceID(), child.TraceID())
}

func TestCallableInvocationsCounter(t *testing.T) {
	before := testutil.ToFloat64(CallableInvocations.WithLabelValues("noop", "ok"))
	CallableInvocations.WithLabelValues("noop", "ok").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(CallableInvocations.WithLabelValues("noop", "ok")))
}
