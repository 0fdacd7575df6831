package middleware

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/toolrpc/toolrpc/protocol"
)

func newTestRequest(method string) *protocol.Request {
	return &protocol.Request{
		JSONRPC: protocol.JSONRPCVersion,
		ID:      json.RawMessage(`1`),
		Method:  method,
	}
}

func okHandler(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	return protocol.NewResponse(req.ResponseID(), "ok"), nil
}

func TestChain(t *testing.T) {
	t.Run("executes in order", func(t *testing.T) {
		var order []string

		mw := func(name string) Middleware {
			return func(next HandlerFunc) HandlerFunc {
				return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
					order = append(order, name+":before")
					resp, err := next(ctx, req)
					order = append(order, name+":after")
					return resp, err
				}
			}
		}

		handler := Chain(mw("outer"), mw("inner"))(okHandler)

		if _, err := handler(context.Background(), newTestRequest("ping")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{"outer:before", "inner:before", "inner:after", "outer:after"}
		if len(order) != len(want) {
			t.Fatalf("order = %v", order)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
			}
		}
	})

	t.Run("empty chain is identity", func(t *testing.T) {
		handler := Chain()(okHandler)
		resp, err := handler(context.Background(), newTestRequest("ping"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.Result != "ok" {
			t.Errorf("Result = %v", resp.Result)
		}
	})
}

func TestDefaultStack(t *testing.T) {
	stack := DefaultStack(NopLogger{})
	if len(stack) != 3 {
		t.Fatalf("got %d middleware", len(stack))
	}

	var sawID string
	handler := Chain(stack...)(func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
		sawID = RequestIDFromContext(ctx)
		return okHandler(ctx, req)
	})

	if _, err := handler(context.Background(), newTestRequest("tools/list")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sawID == "" {
		t.Error("expected request ID to be injected")
	}
}
