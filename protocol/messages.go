package protocol

import "encoding/json"

// JSONRPCVersion is the JSON-RPC protocol version.
const JSONRPCVersion = "2.0"

// UnknownID is the request id echoed in responses when the incoming line
// carried no usable id (malformed JSON, or a request that omitted "id").
// Strict JSON-RPC treats the latter as a notification, but tool clients
// in the wild default missing fields, so every line gets an answer.
var UnknownID = json.RawMessage(`"unknown"`)

// Request represents a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// ResponseID returns the id to echo back: the request's own id when
// present, otherwise UnknownID.
func (r *Request) ResponseID() json.RawMessage {
	if len(r.ID) == 0 {
		return UnknownID
	}
	return r.ID
}

// Response represents a JSON-RPC 2.0 response. Exactly one of Result or
// Error is set, never both.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// NewResponse creates a successful response.
func NewResponse(id json.RawMessage, result any) *Response {
	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Result:  result,
	}
}

// NewErrorResponse creates an error response. A missing id falls back to
// UnknownID so error reporting never produces an id-less response.
func NewErrorResponse(id json.RawMessage, err *Error) *Response {
	if len(id) == 0 {
		id = UnknownID
	}
	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   err,
	}
}
