// Package protocol defines the JSON-RPC 2.0 message types and error codes
// used by toolrpc.
//
// This package provides the low-level protocol structures. Most users
// should use the higher-level toolrpc package instead.
//
// # Request and Response Types
//
// The package defines the core JSON-RPC 2.0 message types:
//
//	type Request struct {
//	    JSONRPC string          `json:"jsonrpc"`
//	    ID      json.RawMessage `json:"id,omitempty"`
//	    Method  string          `json:"method"`
//	    Params  json.RawMessage `json:"params,omitempty"`
//	}
//
//	type Response struct {
//	    JSONRPC string          `json:"jsonrpc"`
//	    ID      json.RawMessage `json:"id,omitempty"`
//	    Result  any             `json:"result,omitempty"`
//	    Error   *Error          `json:"error,omitempty"`
//	}
//
// A request that arrives without an id is still answered; its responses
// carry the literal id "unknown" (see UnknownID).
//
// # Error Codes
//
// Standard JSON-RPC 2.0 error codes are defined as constants:
//
//	CodeParseError     = -32700  // Invalid JSON
//	CodeInvalidRequest = -32600  // Invalid Request object
//	CodeMethodNotFound = -32601  // Method or tool not found
//	CodeInvalidParams  = -32602  // Invalid method parameters
//	CodeInternalError  = -32603  // Internal server error
//
// Helper functions create properly formatted errors:
//
//	err := protocol.NewMethodNotFound("unknown/method")
//	err := protocol.NewInvalidParams("missing required field: name")
//
// Transport-level errors built from these codes are distinct from domain
// failures, which travel inside successful responses; see the server
// package for that split.
package protocol
