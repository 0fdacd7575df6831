// Package testutil provides testing utilities for tool servers: an
// in-memory client that drives the real request dispatcher without a
// transport.
//
// Example usage:
//
//	func TestMyServer(t *testing.T) {
//	    srv := toolrpc.NewServer(toolrpc.ServerInfo{Name: "test", Version: "1.0.0"})
//	    srv.Tool("greet").Handler(func(ctx context.Context, input GreetInput) (string, error) {
//	        return "Hola, " + input.Name, nil
//	    })
//
//	    tc := testutil.NewTestClient(t, srv)
//
//	    result, err := tc.CallTool("greet", map[string]any{"name": "Mundo"})
//	    require.NoError(t, err)
//	    assert.Equal(t, "Hola, Mundo", result.Text)
//	}
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/toolrpc/toolrpc"
	"github.com/toolrpc/toolrpc/protocol"
	"github.com/toolrpc/toolrpc/transport"
)

// TestClient drives a server through the same dispatcher the transports
// use, so tests observe real protocol behavior.
type TestClient struct {
	t       testing.TB
	handler transport.Handler
	reqID   int64
	mu      sync.Mutex
}

// NewTestClient creates a test client for the given server.
func NewTestClient(t testing.TB, srv *toolrpc.Server, opts ...toolrpc.ServeOption) *TestClient {
	t.Helper()
	return &TestClient{
		t:       t,
		handler: toolrpc.NewRequestHandler(srv, opts...),
	}
}

// NewTestClientWithHandler creates a test client with a custom handler,
// useful for testing middleware in isolation.
func NewTestClientWithHandler(t testing.TB, handler transport.Handler) *TestClient {
	t.Helper()
	return &TestClient{t: t, handler: handler}
}

func (tc *TestClient) nextID() json.RawMessage {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.reqID++
	return json.RawMessage(fmt.Sprintf("%d", tc.reqID))
}

// SendRequest sends a request and returns the response. Handler errors are
// converted to error responses, matching what a transport would emit.
func (tc *TestClient) SendRequest(method string, params any) (*protocol.Response, error) {
	tc.t.Helper()

	var paramsData json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal params: %w", err)
		}
		paramsData = data
	}

	req := &protocol.Request{
		JSONRPC: protocol.JSONRPCVersion,
		ID:      tc.nextID(),
		Method:  method,
		Params:  paramsData,
	}

	resp, err := tc.handler.HandleRequest(context.Background(), req)
	if err != nil {
		if rpcErr, ok := err.(*protocol.Error); ok {
			return protocol.NewErrorResponse(req.ResponseID(), rpcErr), nil
		}
		return protocol.NewErrorResponse(req.ResponseID(), protocol.NewInternalError(err.Error())), nil
	}
	return resp, nil
}

// Initialize performs the handshake and returns the result.
func (tc *TestClient) Initialize() (map[string]any, error) {
	tc.t.Helper()

	resp, err := tc.SendRequest(protocol.MethodInitialize, map[string]any{
		"protocolVersion": protocol.MCPVersion,
		"clientInfo": map[string]any{
			"name":    "test-client",
			"version": "1.0.0",
		},
	})
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return asMap(resp.Result)
}

// ListTools lists all registered tools.
func (tc *TestClient) ListTools() ([]map[string]any, error) {
	tc.t.Helper()

	resp, err := tc.SendRequest(protocol.MethodToolsList, nil)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	result, err := asMap(resp.Result)
	if err != nil {
		return nil, err
	}
	return asMapSlice(result["tools"])
}

// ToolResult is the decoded payload of a tools/call response.
type ToolResult struct {
	// Text is the text of the first content block.
	Text string
	// IsError reports whether the call carried a domain failure.
	IsError bool
}

// CallTool calls a tool and decodes the response content.
func (tc *TestClient) CallTool(name string, args any) (*ToolResult, error) {
	tc.t.Helper()

	resp, err := tc.CallToolRaw(name, args)
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}

	result, err := asMap(resp.Result)
	if err != nil {
		return nil, err
	}

	content, err := asMapSlice(result["content"])
	if err != nil {
		return nil, err
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("empty content array")
	}

	text, _ := content[0]["text"].(string)
	isError, _ := result["isError"].(bool)

	return &ToolResult{Text: text, IsError: isError}, nil
}

// CallToolJSON calls a tool and unmarshals its text payload into out.
func (tc *TestClient) CallToolJSON(name string, args any, out any) (*ToolResult, error) {
	tc.t.Helper()

	result, err := tc.CallTool(name, args)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(result.Text), out); err != nil {
		return nil, fmt.Errorf("tool result is not JSON: %w", err)
	}
	return result, nil
}

// CallToolRaw calls a tool and returns the raw response.
func (tc *TestClient) CallToolRaw(name string, args any) (*protocol.Response, error) {
	tc.t.Helper()

	return tc.SendRequest(protocol.MethodToolsCall, map[string]any{
		"name":      name,
		"arguments": args,
	})
}

// ReadResource reads a resource by URI and returns its text.
func (tc *TestClient) ReadResource(uri string) (string, error) {
	tc.t.Helper()

	resp, err := tc.SendRequest(protocol.MethodResourcesRead, map[string]any{"uri": uri})
	if err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", resp.Error
	}

	result, err := asMap(resp.Result)
	if err != nil {
		return "", err
	}
	contents, err := asMapSlice(result["contents"])
	if err != nil {
		return "", err
	}
	if len(contents) == 0 {
		return "", fmt.Errorf("empty contents array")
	}

	text, _ := contents[0]["text"].(string)
	return text, nil
}

// GetPrompt gets a prompt by name with the given arguments.
func (tc *TestClient) GetPrompt(name string, args map[string]string) (map[string]any, error) {
	tc.t.Helper()

	resp, err := tc.SendRequest(protocol.MethodPromptsGet, map[string]any{
		"name":      name,
		"arguments": args,
	})
	if err != nil {
		return nil, err
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return asMap(resp.Result)
}

// Ping sends a ping and returns the acknowledgement message.
func (tc *TestClient) Ping() (string, error) {
	tc.t.Helper()

	resp, err := tc.SendRequest(protocol.MethodPing, nil)
	if err != nil {
		return "", err
	}
	if resp.Error != nil {
		return "", resp.Error
	}

	result, err := asMap(resp.Result)
	if err != nil {
		return "", err
	}
	msg, _ := result["message"].(string)
	return msg, nil
}

// AssertToolExists fails the test if the tool is not listed.
func (tc *TestClient) AssertToolExists(name string) {
	tc.t.Helper()

	tools, err := tc.ListTools()
	if err != nil {
		tc.t.Fatalf("failed to list tools: %v", err)
	}
	for _, tool := range tools {
		if tool["name"] == name {
			return
		}
	}
	tc.t.Errorf("tool %q not found", name)
}

// asMap handles both map[string]any (in-process results) and structs that
// arrive as JSON.
func asMap(v any) (map[string]any, error) {
	if m, ok := v.(map[string]any); ok {
		return m, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("unexpected result type %T: %w", v, err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unexpected result type %T: %w", v, err)
	}
	return m, nil
}

func asMapSlice(v any) ([]map[string]any, error) {
	switch s := v.(type) {
	case []map[string]any:
		return s, nil
	case []any:
		out := make([]map[string]any, len(s))
		for i, item := range s {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("unexpected item type %T", item)
			}
			out[i] = m
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unexpected slice type %T", v)
	}
}
