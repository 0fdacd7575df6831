// Package transport provides the wire layer for tool servers: line-delimited
// JSON-RPC over stdio, and WebSocket for network deployments.
package transport

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/toolrpc/toolrpc/protocol"
)

// Handler processes incoming JSON-RPC requests.
type Handler interface {
	HandleRequest(ctx context.Context, req *protocol.Request) (*protocol.Response, error)
}

// HandlerFunc is an adapter to allow ordinary functions as handlers.
type HandlerFunc func(ctx context.Context, req *protocol.Request) (*protocol.Response, error)

// HandleRequest calls f(ctx, req).
func (f HandlerFunc) HandleRequest(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	return f(ctx, req)
}

// Transport defines the communication layer interface.
type Transport interface {
	// Serve starts the transport, blocking until ctx is canceled, input is
	// exhausted, or an error occurs.
	Serve(ctx context.Context, handler Handler) error

	// Addr returns the transport's address description.
	Addr() string
}

// NotificationSender can send JSON-RPC notifications to clients.
type NotificationSender interface {
	SendNotification(method string, params any) error
}

type notificationSenderKey struct{}

// ContextWithNotificationSender returns a context with the notification sender attached.
func ContextWithNotificationSender(ctx context.Context, sender NotificationSender) context.Context {
	return context.WithValue(ctx, notificationSenderKey{}, sender)
}

// NotificationSenderFromContext returns the notification sender from context, or nil if none.
func NotificationSenderFromContext(ctx context.Context) NotificationSender {
	sender, _ := ctx.Value(notificationSenderKey{}).(NotificationSender)
	return sender
}

// Notification represents a JSON-RPC notification (no id, no response expected).
type Notification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// errorResponse builds the response for a handler failure, mapping any
// non-protocol error to an internal error.
func errorResponse(req *protocol.Request, err error) *protocol.Response {
	var rpcErr *protocol.Error
	if errors.As(err, &rpcErr) {
		return protocol.NewErrorResponse(req.ResponseID(), rpcErr)
	}
	return protocol.NewErrorResponse(req.ResponseID(), protocol.NewInternalError(err.Error()))
}
