package pkglog

import (
	"context"
	"testing"
)

type ctxKey string

func TestCorrelationID(t *testing.T) {
	ctx := context.Background()
	if got := GetCorrelationID(ctx); got != "" {
		t.Fatalf("empty context cid = %q", got)
	}

	ctx = SetCorrelationID(ctx, "cid-123")
	if got := GetCorrelationID(ctx); got != "cid-123" {
		t.Fatalf("cid = %q", got)
	}
}

func TestDetachContext(t *testing.T) {
	root := context.WithValue(context.Background(), ctxKey("root"), true)
	req, cancel := context.WithCancel(SetCorrelationID(context.Background(), "cid-9"))
	cancel()

	got := DetachContext(root, req)
	if got.Err() != nil {
		t.Fatal("detached context inherited cancellation")
	}
	if GetCorrelationID(got) != "cid-9" || got.Value(ctxKey("root")) != true {
		t.Fatal("detached context lost values")
	}

	if DetachContext(root, context.Background()) != root {
		t.Fatal("expected parent back when there is no cid")
	}
}
