package middleware

import (
	"context"
	"testing"

	"github.com/toolrpc/toolrpc/protocol"
)

func TestRequestID(t *testing.T) {
	t.Run("injects request ID", func(t *testing.T) {
		var captured string
		handler := RequestID()(func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			captured = RequestIDFromContext(ctx)
			return okHandler(ctx, req)
		})

		if _, err := handler(context.Background(), newTestRequest("ping")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if captured == "" {
			t.Error("expected non-empty request ID")
		}
	})

	t.Run("preserves existing request ID", func(t *testing.T) {
		var captured string
		handler := RequestID()(func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			captured = RequestIDFromContext(ctx)
			return okHandler(ctx, req)
		})

		ctx := ContextWithRequestID(context.Background(), "existing-id")
		if _, err := handler(ctx, newTestRequest("ping")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if captured != "existing-id" {
			t.Errorf("request ID = %q, want %q", captured, "existing-id")
		}
	})

	t.Run("custom generator", func(t *testing.T) {
		var captured string
		mw := RequestIDWithGenerator(func() string { return "fixed" })
		handler := mw(func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			captured = RequestIDFromContext(ctx)
			return okHandler(ctx, req)
		})

		if _, err := handler(context.Background(), newTestRequest("ping")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if captured != "fixed" {
			t.Errorf("request ID = %q", captured)
		}
	})

	t.Run("ids differ across requests", func(t *testing.T) {
		seen := make(map[string]bool)
		handler := RequestID()(func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			seen[RequestIDFromContext(ctx)] = true
			return okHandler(ctx, req)
		})

		for range 5 {
			if _, err := handler(context.Background(), newTestRequest("ping")); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if len(seen) != 5 {
			t.Errorf("got %d unique IDs, want 5", len(seen))
		}
	})
}

func TestRequestIDFromContext_Missing(t *testing.T) {
	if id := RequestIDFromContext(context.Background()); id != "" {
		t.Errorf("id = %q, want empty", id)
	}
}
