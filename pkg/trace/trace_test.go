package trace

import (
	"context"
	"testing"
)

func TestEnsureMintsOnce(t *testing.T) {
	ctx, id := Ensure(context.Background())
	if id == "" {
		t.Fatalf("trace id must be minted")
	}
	_, again := Ensure(ctx)
	if again != id {
		t.Fatalf("existing trace id must be kept: %s vs %s", again, id)
	}
}

func TestFromContextMissing(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatalf("empty context must have no trace id")
	}
}

func TestWithTraceIDEmptyMints(t *testing.T) {
	ctx := WithTraceID(context.Background(), "")
	if id, ok := FromContext(ctx); !ok || id == "" {
		t.Fatalf("empty id must mint a fresh one")
	}
}
