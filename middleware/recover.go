package middleware

import (
	"context"
	"fmt"

	"github.com/toolrpc/toolrpc/protocol"
)

// PanicHandler is called when a panic is recovered.
type PanicHandler func(ctx context.Context, req *protocol.Request, panicVal any) (*protocol.Response, error)

// Recover returns middleware that catches panics and converts them to
// internal errors, so a misbehaving tool handler never kills the serve loop.
func Recover() Middleware {
	return RecoverWithHandler(defaultPanicHandler)
}

// RecoverWithHandler returns middleware that catches panics and calls the
// provided handler, allowing custom handling such as alerting.
func RecoverWithHandler(handler PanicHandler) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (resp *protocol.Response, err error) {
			defer func() {
				if r := recover(); r != nil {
					resp, err = handler(ctx, req, r)
				}
			}()
			return next(ctx, req)
		}
	}
}

func defaultPanicHandler(_ context.Context, _ *protocol.Request, panicVal any) (*protocol.Response, error) {
	var msg string
	switch v := panicVal.(type) {
	case error:
		msg = fmt.Sprintf("panic: %v", v)
	case string:
		msg = fmt.Sprintf("panic: %s", v)
	default:
		msg = fmt.Sprintf("panic: %v", v)
	}
	return nil, protocol.NewInternalError(msg)
}
