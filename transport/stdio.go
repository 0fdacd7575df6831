package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/toolrpc/toolrpc/protocol"
)

// defaultMaxLineSize caps a single request line at 10 MB. Arguments of
// legitimate tool calls run to tens of kilobytes; anything orders of
// magnitude beyond that is not a request worth buffering.
const defaultMaxLineSize = 10 * 1024 * 1024

// Stdio implements the transport over stdin/stdout: one JSON-RPC message
// per line. Protocol traffic owns stdout; anything diagnostic goes to
// stderr so the client never sees a non-JSON line.
type Stdio struct {
	in          io.Reader
	out         io.Writer
	errOut      io.Writer
	maxLineSize int

	mu sync.Mutex
}

// StdioOption configures a Stdio transport.
type StdioOption func(*Stdio)

// WithStdin sets a custom stdin reader.
func WithStdin(r io.Reader) StdioOption {
	return func(s *Stdio) {
		s.in = r
	}
}

// WithStdout sets a custom stdout writer.
func WithStdout(w io.Writer) StdioOption {
	return func(s *Stdio) {
		s.out = w
	}
}

// WithStderr sets a custom stderr writer.
func WithStderr(w io.Writer) StdioOption {
	return func(s *Stdio) {
		s.errOut = w
	}
}

// WithMaxLineSize caps the length of a single request line in bytes. A
// line over the cap is answered with a parse error.
func WithMaxLineSize(n int) StdioOption {
	return func(s *Stdio) {
		s.maxLineSize = n
	}
}

// NewStdio creates a new stdio transport.
func NewStdio(opts ...StdioOption) *Stdio {
	s := &Stdio{
		in:          os.Stdin,
		out:         os.Stdout,
		errOut:      os.Stderr,
		maxLineSize: defaultMaxLineSize,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Addr returns the transport address.
func (s *Stdio) Addr() string {
	return "stdio"
}

// Serve reads requests line by line from stdin until EOF or ctx
// cancellation. Blank lines are skipped; every non-blank line gets exactly
// one response line, including lines that fail to parse.
func (s *Stdio) Serve(ctx context.Context, handler Handler) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), s.maxLineSize)

	lines := make(chan string)
	scanErr := make(chan error, 1)

	go func() {
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			scanErr <- err
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return s.finish(scanErr)
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			s.handleLine(ctx, handler, line)
		}
	}
}

// finish surfaces a pending read error once the scan goroutine is done.
// The error is sent before lines is closed, so checking here (rather
// than racing a select case against the channel close) cannot drop it.
// A line over the size cap still gets its response line; the scanner
// cannot resume past it, so the session then ends as on end-of-input.
func (s *Stdio) finish(scanErr <-chan error) error {
	select {
	case err := <-scanErr:
		if errors.Is(err, bufio.ErrTooLong) {
			s.writeResponse(protocol.NewErrorResponse(nil, protocol.NewParseError(
				fmt.Sprintf("request line exceeds %d bytes", s.maxLineSize))))
			return nil
		}
		return err
	default:
		return nil // EOF
	}
}

// SendNotification sends a JSON-RPC notification to the client.
func (s *Stdio) SendNotification(method string, params any) error {
	paramsData, err := json.Marshal(params)
	if err != nil {
		return err
	}

	notif := Notification{
		JSONRPC: protocol.JSONRPCVersion,
		Method:  method,
		Params:  paramsData,
	}

	data, err := json.Marshal(notif)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.out.Write(data); err != nil {
		return err
	}
	_, err = s.out.Write([]byte("\n"))
	return err
}

func (s *Stdio) handleLine(ctx context.Context, handler Handler, line string) {
	var req protocol.Request
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		s.writeResponse(protocol.NewErrorResponse(nil, protocol.NewParseError("invalid JSON: "+err.Error())))
		return
	}

	ctx = ContextWithNotificationSender(ctx, s)

	resp, err := handler.HandleRequest(ctx, &req)
	if err != nil {
		resp = errorResponse(&req, err)
	}

	if resp != nil {
		s.writeResponse(resp)
	}
}

func (s *Stdio) writeResponse(resp *protocol.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.out.Write(data)
	_, _ = s.out.Write([]byte("\n"))
}
