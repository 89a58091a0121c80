// Package trace carries a per-request trace id through contexts so log lines
// emitted by different services can be correlated.
package trace

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

// New returns a fresh trace id.
func New() string { return uuid.NewString() }

// WithTraceID attaches a trace id to the context, minting one if empty.
func WithTraceID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = New()
	}
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext extracts the trace id, if any.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

// Ensure returns the context's trace id, attaching a new one when absent.
func Ensure(ctx context.Context) (context.Context, string) {
	if id, ok := FromContext(ctx); ok {
		return ctx, id
	}
	id := New()
	return WithTraceID(ctx, id), id
}
