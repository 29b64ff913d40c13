package mongo

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// WithTimeout bounds a single repository call. Inside a transaction the
// context is returned unchanged so the call inherits the transaction deadline.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if InTransaction(ctx) {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline {
		if remaining := time.Until(deadline); remaining < timeout {
			return context.WithTimeout(ctx, remaining)
		}
	}

	return context.WithTimeout(ctx, timeout)
}

// Detached bounds a read that must not join the caller's transaction. The
// returned context keeps only the caller's trace span and deadline, so a
// failed read cannot abort the transaction the caller is running.
func Detached(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	detached := trace.ContextWithSpan(context.Background(), trace.SpanFromContext(ctx))

	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	return context.WithTimeout(detached, timeout)
}
