package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/toolrpc/toolrpc/protocol"
)

func echoHandler(t *testing.T) Handler {
	t.Helper()
	return HandlerFunc(func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
		return protocol.NewResponse(req.ResponseID(), map[string]string{"echo": req.Method}), nil
	})
}

// serveAll runs the transport until stdin is exhausted.
func serveAll(t *testing.T, input string, handler Handler) []string {
	t.Helper()

	var out bytes.Buffer
	s := NewStdio(
		WithStdin(strings.NewReader(input)),
		WithStdout(&out),
		WithStderr(&bytes.Buffer{}),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Serve(ctx, handler); err != nil {
		t.Fatalf("Serve: %v", err)
	}

	var lines []string
	for _, l := range strings.Split(out.String(), "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func TestStdio_Serve(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		lines := serveAll(t, `{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n", echoHandler(t))

		if len(lines) != 1 {
			t.Fatalf("got %d response lines", len(lines))
		}

		var resp protocol.Response
		if err := json.Unmarshal([]byte(lines[0]), &resp); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		if string(resp.ID) != "1" {
			t.Errorf("ID = %s", resp.ID)
		}
		if resp.Error != nil {
			t.Errorf("unexpected error: %v", resp.Error)
		}
	})

	t.Run("blank lines are skipped", func(t *testing.T) {
		input := "\n   \n" + `{"jsonrpc":"2.0","id":2,"method":"ping"}` + "\n\n"
		lines := serveAll(t, input, echoHandler(t))

		if len(lines) != 1 {
			t.Errorf("got %d response lines, want 1", len(lines))
		}
	})

	t.Run("malformed JSON gets a parse error with unknown id", func(t *testing.T) {
		lines := serveAll(t, "{invalid json\n", echoHandler(t))

		if len(lines) != 1 {
			t.Fatalf("got %d response lines", len(lines))
		}

		var resp protocol.Response
		if err := json.Unmarshal([]byte(lines[0]), &resp); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		if resp.Error == nil || resp.Error.Code != protocol.CodeParseError {
			t.Errorf("Error = %+v", resp.Error)
		}
		if string(resp.ID) != `"unknown"` {
			t.Errorf("ID = %s, want \"unknown\"", resp.ID)
		}
	})

	t.Run("request without id is still answered", func(t *testing.T) {
		lines := serveAll(t, `{"jsonrpc":"2.0","method":"ping"}`+"\n", echoHandler(t))

		if len(lines) != 1 {
			t.Fatalf("got %d response lines, want 1", len(lines))
		}
		var resp protocol.Response
		if err := json.Unmarshal([]byte(lines[0]), &resp); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		if string(resp.ID) != `"unknown"` {
			t.Errorf("ID = %s, want \"unknown\"", resp.ID)
		}
	})

	t.Run("server recovers after a bad line", func(t *testing.T) {
		input := "{bad\n" + `{"jsonrpc":"2.0","id":3,"method":"tools/list"}` + "\n"
		lines := serveAll(t, input, echoHandler(t))

		if len(lines) != 2 {
			t.Fatalf("got %d response lines, want 2", len(lines))
		}

		var second protocol.Response
		if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
			t.Fatalf("unmarshal second response: %v", err)
		}
		if string(second.ID) != "3" || second.Error != nil {
			t.Errorf("second response = %+v", second)
		}
	})

	t.Run("handler protocol error becomes error response", func(t *testing.T) {
		handler := HandlerFunc(func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			return nil, protocol.NewMethodNotFound("method not found: " + req.Method)
		})

		lines := serveAll(t, `{"jsonrpc":"2.0","id":4,"method":"nope"}`+"\n", handler)

		var resp protocol.Response
		if err := json.Unmarshal([]byte(lines[0]), &resp); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		if resp.Error == nil || resp.Error.Code != protocol.CodeMethodNotFound {
			t.Errorf("Error = %+v", resp.Error)
		}
	})

	t.Run("EOF ends the loop cleanly", func(t *testing.T) {
		lines := serveAll(t, "", echoHandler(t))
		if len(lines) != 0 {
			t.Errorf("got %d lines on empty input", len(lines))
		}
	})

	t.Run("large request lines are served", func(t *testing.T) {
		// 80KB of arguments is over the default bufio.Scanner token limit.
		padding := strings.Repeat("x", 80*1024)
		input := `{"jsonrpc":"2.0","id":9,"method":"ping","params":{"pad":"` + padding + `"}}` + "\n" +
			`{"jsonrpc":"2.0","id":10,"method":"ping"}` + "\n"
		lines := serveAll(t, input, echoHandler(t))

		if len(lines) != 2 {
			t.Fatalf("got %d response lines, want 2", len(lines))
		}
		for i, want := range []string{"9", "10"} {
			var resp protocol.Response
			if err := json.Unmarshal([]byte(lines[i]), &resp); err != nil {
				t.Fatalf("unmarshal response %d: %v", i, err)
			}
			if string(resp.ID) != want || resp.Error != nil {
				t.Errorf("response %d = id %s, error %v", i, resp.ID, resp.Error)
			}
		}
	})

	t.Run("line over the cap is answered with a parse error", func(t *testing.T) {
		var out bytes.Buffer
		s := NewStdio(
			WithStdin(strings.NewReader(strings.Repeat("x", 2048)+"\n")),
			WithStdout(&out),
			WithStderr(&bytes.Buffer{}),
			WithMaxLineSize(1024),
		)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.Serve(ctx, echoHandler(t)); err != nil {
			t.Fatalf("Serve: %v", err)
		}

		var resp protocol.Response
		if err := json.Unmarshal(bytes.TrimSpace(out.Bytes()), &resp); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		if resp.Error == nil || resp.Error.Code != protocol.CodeParseError {
			t.Errorf("Error = %+v", resp.Error)
		}
		if string(resp.ID) != `"unknown"` {
			t.Errorf("ID = %s, want \"unknown\"", resp.ID)
		}
	})
}

type failingReader struct {
	data string
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if len(r.data) > 0 {
		n := copy(p, r.data)
		r.data = r.data[n:]
		return n, nil
	}
	return 0, r.err
}

func TestStdio_ServeReadError(t *testing.T) {
	readErr := errors.New("device gone")
	var out bytes.Buffer
	s := NewStdio(
		WithStdin(&failingReader{
			data: `{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n",
			err:  readErr,
		}),
		WithStdout(&out),
		WithStderr(&bytes.Buffer{}),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// The error must come back even though the line channel closes first.
	if err := s.Serve(ctx, echoHandler(t)); !errors.Is(err, readErr) {
		t.Fatalf("Serve error = %v, want %v", err, readErr)
	}

	if !strings.Contains(out.String(), `"id":1`) {
		t.Errorf("request before the failure was not answered: %q", out.String())
	}
}

func TestStdio_SendNotification(t *testing.T) {
	var out bytes.Buffer
	s := NewStdio(
		WithStdin(strings.NewReader("")),
		WithStdout(&out),
	)

	total := 100.0
	err := s.SendNotification(protocol.MethodProgress, map[string]any{
		"progressToken": "tok",
		"progress":      25.0,
		"total":         total,
	})
	if err != nil {
		t.Fatalf("SendNotification: %v", err)
	}

	var notif Notification
	if err := json.Unmarshal(out.Bytes(), &notif); err != nil {
		t.Fatalf("unmarshal notification: %v", err)
	}
	if notif.Method != protocol.MethodProgress {
		t.Errorf("Method = %q", notif.Method)
	}
	if notif.JSONRPC != protocol.JSONRPCVersion {
		t.Errorf("JSONRPC = %q", notif.JSONRPC)
	}
}

func TestStdio_Addr(t *testing.T) {
	if got := NewStdio().Addr(); got != "stdio" {
		t.Errorf("Addr() = %q", got)
	}
}
