package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

type ctxKey struct{}

func TestWithTimeout_KeepsEarlierDeadline(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	ctx, cancelCall := WithTimeout(parent, time.Minute)
	defer cancelCall()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 50*time.Millisecond)
}

func TestDetached_DropsParentValuesAndCancellation(t *testing.T) {
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{1},
		SpanID:  trace.SpanID{2},
	})
	parent := trace.ContextWithSpanContext(context.Background(), spanCtx)
	parent = context.WithValue(parent, ctxKey{}, "session")
	parent, cancelParent := context.WithCancel(parent)

	ctx, cancel := Detached(parent, time.Minute)
	defer cancel()
	cancelParent()

	assert.Nil(t, ctx.Value(ctxKey{}))
	assert.False(t, InTransaction(ctx))
	assert.NoError(t, ctx.Err())
	assert.Equal(t, spanCtx.TraceID(), trace.SpanContextFromContext(ctx).TraceID())
}

func TestDetached_KeepsEarlierDeadline(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	ctx, cancelDetached := Detached(parent, time.Minute)
	defer cancelDetached()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 50*time.Millisecond)
}
