package server

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/toolrpc/toolrpc/protocol"
	"github.com/toolrpc/toolrpc/schema"
)

// Result is implemented by tool outputs that carry their own domain
// success flag. A failed Result is still a successful RPC response; the
// failure travels inside the payload as isError, never as a JSON-RPC
// error. Outputs that do not implement Result are treated as successes.
type Result interface {
	IsError() bool
}

// Tool represents a callable operation exposed via tools/call.
type Tool struct {
	name          string
	description   string
	inputType     reflect.Type
	inputSchema   *schema.Schema
	validateInput bool
	closedInput   bool
	handler       any
	hasContext    bool
}

// Name returns the tool name.
func (t *Tool) Name() string { return t.name }

// ToolBuilder provides a fluent API for building tools.
type ToolBuilder struct {
	tool   *Tool
	server *Server
	err    error
}

// Description sets the tool description.
func (b *ToolBuilder) Description(desc string) *ToolBuilder {
	if b.err != nil {
		return b
	}
	b.tool.description = desc
	return b
}

// InputSchema replaces the generated schema with an explicit one. Useful
// when the advertised schema is tighter or looser than what the handler's
// input type expresses, e.g. operands declared as numbers but coerced
// from strings by the handler.
func (b *ToolBuilder) InputSchema(s *schema.Schema) *ToolBuilder {
	if b.err != nil {
		return b
	}
	b.tool.inputSchema = s
	return b
}

// ValidateInput enables runtime schema validation of tool inputs.
// When enabled, arguments are validated against the JSON Schema before
// the handler is called. Invalid arguments result in an InvalidParams
// error (-32602).
func (b *ToolBuilder) ValidateInput() *ToolBuilder {
	if b.err != nil {
		return b
	}
	b.tool.validateInput = true
	return b
}

// ClosedInput marks the input schema as rejecting undeclared properties
// (additionalProperties false). Applies to the generated schema as well
// as one set via InputSchema.
func (b *ToolBuilder) ClosedInput() *ToolBuilder {
	if b.err != nil {
		return b
	}
	b.tool.closedInput = true
	return b
}

// Handler sets the tool handler function and registers the tool.
// Handler signature must be one of:
//   - func(input T) (R, error)
//   - func(ctx context.Context, input T) (R, error)
func (b *ToolBuilder) Handler(fn any) *ToolBuilder {
	if b.err != nil {
		return b
	}

	if err := b.validateHandler(fn); err != nil {
		b.err = err
		return b
	}

	if b.tool.closedInput && b.tool.inputSchema != nil {
		b.tool.inputSchema.Closed()
	}

	b.tool.handler = fn
	if err := b.server.registerTool(b.tool); err != nil {
		b.err = err
	}
	return b
}

// Err returns the first error encountered while building, including
// ErrDuplicateTool for a name collision.
func (b *ToolBuilder) Err() error {
	return b.err
}

// validateHandler validates the handler function signature.
func (b *ToolBuilder) validateHandler(fn any) error {
	fnType := reflect.TypeOf(fn)

	if fnType.Kind() != reflect.Func {
		return fmt.Errorf("handler must be a function, got %s", fnType.Kind())
	}

	numIn := fnType.NumIn()
	if numIn < 1 || numIn > 2 {
		return fmt.Errorf("handler must have 1 or 2 parameters, got %d", numIn)
	}

	var inputParamIdx int
	if numIn == 2 {
		if !fnType.In(0).Implements(reflect.TypeOf((*context.Context)(nil)).Elem()) {
			return fmt.Errorf("first parameter must be context.Context when using 2 parameters")
		}
		b.tool.hasContext = true
		inputParamIdx = 1
	} else {
		inputParamIdx = 0
	}

	inputType := fnType.In(inputParamIdx)
	if inputType.Kind() == reflect.Ptr {
		inputType = inputType.Elem()
	}
	b.tool.inputType = inputType

	// An explicit schema set via InputSchema wins over the generated one.
	if b.tool.inputSchema == nil {
		inputSchema, err := schema.GenerateFromType(inputType)
		if err != nil {
			return fmt.Errorf("failed to generate input schema: %w", err)
		}
		b.tool.inputSchema = inputSchema
	}

	if fnType.NumOut() != 2 {
		return fmt.Errorf("handler must return (result, error), got %d return values", fnType.NumOut())
	}

	errType := reflect.TypeOf((*error)(nil)).Elem()
	if !fnType.Out(1).Implements(errType) {
		return fmt.Errorf("second return value must be error")
	}

	return nil
}

// Execute runs the tool handler with the given JSON arguments.
func (t *Tool) Execute(ctx context.Context, input json.RawMessage) (any, error) {
	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}

	// Validate arguments against the schema before the handler runs
	if t.validateInput && t.inputSchema != nil {
		if err := t.inputSchema.Validate(input); err != nil {
			return nil, protocol.NewInvalidParams(fmt.Sprintf("input validation failed: %v", err))
		}
	}

	inputPtr := reflect.New(t.inputType)
	if err := json.Unmarshal(input, inputPtr.Interface()); err != nil {
		return nil, protocol.NewInvalidParams(fmt.Sprintf("failed to parse input: %v", err))
	}

	fnVal := reflect.ValueOf(t.handler)
	var args []reflect.Value

	if t.hasContext {
		args = append(args, reflect.ValueOf(ctx))
	}
	args = append(args, inputPtr.Elem())

	results := fnVal.Call(args)

	resultVal := results[0].Interface()
	errVal := results[1].Interface()

	if errVal != nil {
		return nil, errVal.(error)
	}

	return resultVal, nil
}
