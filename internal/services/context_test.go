package services_test

import (
	"context"
	"testing"

	"pullapod/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithFeedID(ctx, 42)
	ctx = services.WithCommand(ctx, "recent")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.FeedIDFromContext(ctx); !ok || id != 42 {
		t.Fatalf("unexpected feed id: %v %v", id, ok)
	}
	if command, ok := services.CommandFromContext(ctx); !ok || command != "recent" {
		t.Fatalf("unexpected command: %v %v", command, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestCommandBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithCommand(ctx, "")
	if _, ok := services.CommandFromContext(ctx); ok {
		t.Fatal("expected no command value")
	}
}

func TestFeedIDKeepsExplicitZero(t *testing.T) {
	ctx := services.WithFeedID(context.Background(), 0)
	if id, ok := services.FeedIDFromContext(ctx); !ok || id != 0 {
		t.Fatalf("unexpected feed id: %v %v", id, ok)
	}
	if _, ok := services.FeedIDFromContext(context.Background()); ok {
		t.Fatal("expected missing feed id")
	}
}
