// Package toolrpc is a framework for building JSON-RPC 2.0 tool servers
// that speak the MCP handshake: initialize, tools/list, tools/call, ping,
// plus optional resources and prompts.
//
// Basic usage:
//
//	srv := toolrpc.NewServer(toolrpc.ServerInfo{
//	    Name:    "calculadora",
//	    Version: "1.0.0",
//	})
//
//	type SumaInput struct {
//	    A float64 `json:"a" jsonschema:"required"`
//	    B float64 `json:"b" jsonschema:"required"`
//	}
//
//	srv.Tool("suma").
//	    Description("Suma dos números").
//	    Handler(func(ctx context.Context, input SumaInput) (calc.Resultado, error) {
//	        return calc.Suma(input.A, input.B), nil
//	    })
//
//	toolrpc.ServeStdio(ctx, srv)
//
// Tool outputs that implement Result report domain failures inside the
// tools/call payload (content plus isError: true); JSON-RPC errors are
// reserved for protocol-level failures such as unknown methods or invalid
// params.
package toolrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/toolrpc/toolrpc/middleware"
	"github.com/toolrpc/toolrpc/protocol"
	"github.com/toolrpc/toolrpc/server"
	"github.com/toolrpc/toolrpc/transport"
)

// Re-export core types for convenience.

// ServerInfo contains server metadata exposed to clients.
type ServerInfo = server.Info

// Server is the tool server instance.
type Server = server.Server

// Option configures a Server.
type Option = server.Option

// Result marks tool outputs that carry their own domain success flag.
type Result = server.Result

// Resource types.
type ResourceContent = server.ResourceContent
type ResourceInfo = server.ResourceInfo

// Prompt types.
type PromptResult = server.PromptResult
type PromptMessage = server.PromptMessage
type PromptArgument = server.PromptArgument
type PromptInfo = server.PromptInfo
type TextContent = server.TextContent

// Progress types for long-running tools.
type ProgressToken = server.ProgressToken
type ProgressReporter = server.ProgressReporter

// ProgressFromContext returns the progress reporter from context. Use this
// in tool handlers to report progress for long-running operations; it is a
// no-op when the client did not request progress.
var ProgressFromContext = server.ProgressFromContext

// Middleware types.
type Middleware = middleware.Middleware
type Logger = middleware.Logger
type LogField = middleware.Field

// Middleware re-exports.
var (
	Chain     = middleware.Chain
	Recover   = middleware.Recover
	RequestID = middleware.RequestID
	Logging   = middleware.Logging
	OTel      = middleware.OTel

	RateLimit         = middleware.RateLimit
	RateLimitByMethod = middleware.RateLimitByMethod
	SizeLimit         = middleware.SizeLimit

	LogF = middleware.F
)

// Timeout returns middleware that enforces a request deadline.
func Timeout(d time.Duration) Middleware {
	return middleware.Timeout(d)
}

// DefaultMiddleware returns the recommended production middleware stack.
func DefaultMiddleware(logger Logger) []Middleware {
	return middleware.DefaultStack(logger)
}

// Size limit presets.
const (
	KB = middleware.KB
	MB = middleware.MB
)

// NewServer creates a new tool server with the given info and options.
func NewServer(info ServerInfo, opts ...Option) *Server {
	return server.New(info, opts...)
}

// ServeOption configures how the server is run.
type ServeOption func(*serveOptions)

type serveOptions struct {
	middleware []Middleware
}

// WithMiddleware adds middleware to the request handling chain.
func WithMiddleware(m ...Middleware) ServeOption {
	return func(o *serveOptions) {
		o.middleware = append(o.middleware, m...)
	}
}

// ServeStdio runs the server over stdio, blocking until stdin is exhausted
// or the context is canceled.
func ServeStdio(ctx context.Context, srv *Server, opts ...ServeOption) error {
	t := transport.NewStdio()
	return t.Serve(ctx, NewRequestHandler(srv, opts...))
}

// WebSocketOption configures the WebSocket transport.
type WebSocketOption = transport.WebSocketOption

// ServeWebSocket runs the server over WebSocket, blocking until the context
// is canceled or an error occurs.
func ServeWebSocket(ctx context.Context, srv *Server, addr string, wsOpts []WebSocketOption, opts ...ServeOption) error {
	t := transport.NewWebSocket(addr, wsOpts...)
	return t.Serve(ctx, NewRequestHandler(srv, opts...))
}

// requestHandler adapts a Server to transport.Handler: it owns the method
// dispatch table and the shaping of every response payload.
type requestHandler struct {
	srv        *Server
	handleFunc middleware.HandlerFunc
}

// NewRequestHandler builds the transport handler for a server, applying any
// configured middleware around the dispatcher.
func NewRequestHandler(srv *Server, opts ...ServeOption) transport.Handler {
	options := &serveOptions{}
	for _, opt := range opts {
		opt(options)
	}

	h := &requestHandler{srv: srv}

	base := middleware.HandlerFunc(h.dispatch)
	if len(options.middleware) > 0 {
		h.handleFunc = middleware.Chain(options.middleware...)(base)
	} else {
		h.handleFunc = base
	}

	return h
}

// HandleRequest implements transport.Handler. The recover here is the last
// line of defense: even with no middleware configured, a panicking handler
// produces an internal error response instead of killing the serve loop.
func (h *requestHandler) HandleRequest(ctx context.Context, req *protocol.Request) (resp *protocol.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = protocol.NewInternalError(fmt.Sprintf("panic: %v", r))
		}
	}()
	return h.handleFunc(ctx, req)
}

func (h *requestHandler) dispatch(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	switch req.Method {
	case protocol.MethodInitialize:
		return h.handleInitialize(req)
	case protocol.MethodToolsList:
		return h.handleToolsList(req)
	case protocol.MethodToolsCall:
		return h.handleToolsCall(ctx, req)
	case protocol.MethodResourcesList:
		if !h.srv.HasResources() {
			return nil, h.unknownMethod(req.Method)
		}
		return h.handleResourcesList(req)
	case protocol.MethodResourcesRead:
		if !h.srv.HasResources() {
			return nil, h.unknownMethod(req.Method)
		}
		return h.handleResourcesRead(ctx, req)
	case protocol.MethodPromptsList:
		if !h.srv.HasPrompts() {
			return nil, h.unknownMethod(req.Method)
		}
		return h.handlePromptsList(req)
	case protocol.MethodPromptsGet:
		if !h.srv.HasPrompts() {
			return nil, h.unknownMethod(req.Method)
		}
		return h.handlePromptsGet(ctx, req)
	case protocol.MethodPing:
		return h.handlePing(req)
	default:
		return nil, h.unknownMethod(req.Method)
	}
}

// supportedMethods lists the methods this server answers, for error data.
func (h *requestHandler) supportedMethods() []string {
	methods := []string{
		protocol.MethodInitialize,
		protocol.MethodToolsList,
		protocol.MethodToolsCall,
		protocol.MethodPing,
	}
	if h.srv.HasResources() {
		methods = append(methods, protocol.MethodResourcesList, protocol.MethodResourcesRead)
	}
	if h.srv.HasPrompts() {
		methods = append(methods, protocol.MethodPromptsList, protocol.MethodPromptsGet)
	}
	return methods
}

func (h *requestHandler) unknownMethod(method string) *protocol.Error {
	return protocol.NewMethodNotFound("method not found: " + method).
		WithData(map[string]any{"supported": h.supportedMethods()})
}

func (h *requestHandler) handleInitialize(req *protocol.Request) (*protocol.Response, error) {
	manifest := h.srv.Manifest()

	// Tools are advertised with their full descriptors so a client can
	// discover them from the handshake alone.
	toolCaps := make(map[string]any)
	for _, t := range h.srv.Tools() {
		toolCaps[t.Name] = map[string]any{
			"name":        t.Name,
			"description": t.Description,
			"inputSchema": t.InputSchema,
		}
	}

	capabilities := map[string]any{
		"tools": toolCaps,
	}
	if h.srv.HasResources() {
		capabilities["resources"] = map[string]any{}
	}
	if h.srv.HasPrompts() {
		capabilities["prompts"] = map[string]any{}
	}

	serverInfo := map[string]any{
		"name":    manifest.Name,
		"version": manifest.Version,
	}
	if manifest.Description != "" {
		serverInfo["description"] = manifest.Description
	}

	result := map[string]any{
		"protocolVersion": manifest.ProtocolVersion,
		"serverInfo":      serverInfo,
		"capabilities":    capabilities,
	}

	return protocol.NewResponse(req.ResponseID(), result), nil
}

func (h *requestHandler) handleToolsList(req *protocol.Request) (*protocol.Response, error) {
	tools := h.srv.Tools()

	toolList := make([]map[string]any, 0, len(tools))
	for _, t := range tools {
		toolList = append(toolList, map[string]any{
			"name":        t.Name,
			"description": t.Description,
			"inputSchema": t.InputSchema,
		})
	}

	return protocol.NewResponse(req.ResponseID(), map[string]any{"tools": toolList}), nil
}

func (h *requestHandler) handleToolsCall(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	raw := req.Params
	if len(raw) == 0 {
		// A call without params is an empty call: it fails below as an
		// unknown tool, listing what is available.
		raw = json.RawMessage(`{}`)
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, protocol.NewInvalidParams(err.Error())
	}

	tool, ok := h.srv.GetTool(params.Name)
	if !ok {
		return nil, protocol.NewMethodNotFound("tool not found: "+params.Name).
			WithData(map[string]any{"available_tools": h.srv.ToolNames()})
	}

	if token := server.ExtractProgressToken(req.Params); token != "" {
		if sender := transport.NotificationSenderFromContext(ctx); sender != nil {
			reporter := server.NewProgressReporter(token, sender)
			ctx = server.ContextWithProgress(ctx, reporter)
		}
	}

	result, err := tool.Execute(ctx, params.Arguments)
	if err != nil {
		var rpcErr *protocol.Error
		if errors.As(err, &rpcErr) {
			return nil, rpcErr
		}
		return nil, protocol.NewInternalError(err.Error())
	}

	text, err := renderResult(result)
	if err != nil {
		return nil, protocol.NewInternalError("failed to serialize tool result: " + err.Error())
	}

	// isError is always present: false for plain outputs, the domain
	// flag for outputs that carry one.
	isError := false
	if r, ok := result.(server.Result); ok {
		isError = r.IsError()
	}

	response := map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": text},
		},
		"isError": isError,
	}

	return protocol.NewResponse(req.ResponseID(), response), nil
}

// renderResult turns a tool output into the text content block. Strings
// pass through untouched; everything else is pretty-printed JSON so the
// payload stays readable in client logs.
func renderResult(result any) (string, error) {
	if s, ok := result.(string); ok {
		return s, nil
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (h *requestHandler) handleResourcesList(req *protocol.Request) (*protocol.Response, error) {
	resources := h.srv.Resources()

	resourceList := make([]map[string]any, 0, len(resources))
	for _, r := range resources {
		item := map[string]any{
			"uri":  r.URITemplate,
			"name": r.Name,
		}
		if r.Description != "" {
			item["description"] = r.Description
		}
		if r.MimeType != "" {
			item["mimeType"] = r.MimeType
		}
		resourceList = append(resourceList, item)
	}

	return protocol.NewResponse(req.ResponseID(), map[string]any{"resources": resourceList}), nil
}

func (h *requestHandler) handleResourcesRead(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	var params struct {
		URI string `json:"uri"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, protocol.NewInvalidParams(err.Error())
	}

	resource, ok := h.srv.FindResourceForURI(params.URI)
	if !ok {
		return nil, protocol.NewInvalidParams("resource not found: " + params.URI)
	}

	content, err := resource.Read(ctx, params.URI)
	if err != nil {
		var rpcErr *protocol.Error
		if errors.As(err, &rpcErr) {
			return nil, rpcErr
		}
		return nil, protocol.NewInternalError(err.Error())
	}

	item := map[string]any{
		"uri":      content.URI,
		"mimeType": content.MimeType,
		"text":     content.Text,
	}

	return protocol.NewResponse(req.ResponseID(), map[string]any{
		"contents": []map[string]any{item},
	}), nil
}

func (h *requestHandler) handlePromptsList(req *protocol.Request) (*protocol.Response, error) {
	prompts := h.srv.Prompts()

	promptList := make([]map[string]any, 0, len(prompts))
	for _, p := range prompts {
		item := map[string]any{
			"name": p.Name,
		}
		if p.Description != "" {
			item["description"] = p.Description
		}
		if len(p.Arguments) > 0 {
			args := make([]map[string]any, 0, len(p.Arguments))
			for _, arg := range p.Arguments {
				argItem := map[string]any{
					"name":     arg.Name,
					"required": arg.Required,
				}
				if arg.Description != "" {
					argItem["description"] = arg.Description
				}
				args = append(args, argItem)
			}
			item["arguments"] = args
		}
		promptList = append(promptList, item)
	}

	return protocol.NewResponse(req.ResponseID(), map[string]any{"prompts": promptList}), nil
}

func (h *requestHandler) handlePromptsGet(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	var params struct {
		Name      string            `json:"name"`
		Arguments map[string]string `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, protocol.NewInvalidParams(err.Error())
	}

	prompt, ok := h.srv.GetPrompt(params.Name)
	if !ok {
		return nil, protocol.NewInvalidParams("prompt not found: " + params.Name)
	}

	result, err := prompt.Get(ctx, params.Arguments)
	if err != nil {
		var rpcErr *protocol.Error
		if errors.As(err, &rpcErr) {
			return nil, rpcErr
		}
		return nil, protocol.NewInvalidParams(err.Error())
	}

	response := map[string]any{
		"messages": result.Messages,
	}
	if result.Description != "" {
		response["description"] = result.Description
	}

	return protocol.NewResponse(req.ResponseID(), response), nil
}

// handlePing acknowledges with a human-readable message so a health probe
// shows which server answered.
func (h *requestHandler) handlePing(req *protocol.Request) (*protocol.Response, error) {
	info := h.srv.Info()
	name := strings.TrimSpace(info.Name)
	if name == "" {
		name = "servidor"
	}
	return protocol.NewResponse(req.ResponseID(), map[string]any{
		"message": fmt.Sprintf("Pong - %s funcionando correctamente", name),
	}), nil
}
