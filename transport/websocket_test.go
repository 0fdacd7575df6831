package transport

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/toolrpc/toolrpc/protocol"
)

// startWebSocket serves a WebSocket transport on an ephemeral port and
// returns its URL.
func startWebSocket(t *testing.T, handler Handler) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	ws := NewWebSocket(addr)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go func() {
		_ = ws.Serve(ctx, handler)
	}()

	// Wait for the listener to come up
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.Dial("tcp", addr)
		if err == nil {
			conn.Close()
			return "ws://" + addr
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("server did not start on %s", addr)
	return ""
}

func TestWebSocket_Serve(t *testing.T) {
	url := startWebSocket(t, echoHandler(t))

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	t.Run("round trip", func(t *testing.T) {
		req := protocol.Request{
			JSONRPC: protocol.JSONRPCVersion,
			ID:      json.RawMessage(`1`),
			Method:  "ping",
		}
		if err := conn.WriteJSON(req); err != nil {
			t.Fatalf("write: %v", err)
		}

		var resp protocol.Response
		if err := conn.ReadJSON(&resp); err != nil {
			t.Fatalf("read: %v", err)
		}
		if string(resp.ID) != "1" || resp.Error != nil {
			t.Errorf("response = %+v", resp)
		}
	})

	t.Run("malformed message gets parse error", func(t *testing.T) {
		if err := conn.WriteMessage(websocket.TextMessage, []byte("{bad")); err != nil {
			t.Fatalf("write: %v", err)
		}

		var resp protocol.Response
		if err := conn.ReadJSON(&resp); err != nil {
			t.Fatalf("read: %v", err)
		}
		if resp.Error == nil || resp.Error.Code != protocol.CodeParseError {
			t.Errorf("Error = %+v", resp.Error)
		}
		if string(resp.ID) != `"unknown"` {
			t.Errorf("ID = %s, want \"unknown\"", resp.ID)
		}
	})

	t.Run("connection survives a bad message", func(t *testing.T) {
		req := protocol.Request{
			JSONRPC: protocol.JSONRPCVersion,
			ID:      json.RawMessage(`2`),
			Method:  "tools/list",
		}
		if err := conn.WriteJSON(req); err != nil {
			t.Fatalf("write: %v", err)
		}

		var resp protocol.Response
		if err := conn.ReadJSON(&resp); err != nil {
			t.Fatalf("read: %v", err)
		}
		if string(resp.ID) != "2" {
			t.Errorf("ID = %s", resp.ID)
		}
	})
}

func TestWebSocket_Addr(t *testing.T) {
	ws := NewWebSocket("127.0.0.1:9000")
	if ws.Addr() != "127.0.0.1:9000" {
		t.Errorf("Addr() = %q", ws.Addr())
	}
}
