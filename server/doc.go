// Package server provides the registries behind a toolrpc server: tools,
// resources and prompts, plus progress reporting for long-running tool
// calls.
//
// The tool registry preserves registration order (tools/list output is
// deterministic) and rejects duplicate names with ErrDuplicateTool. It is
// built once at startup and never mutated afterwards.
//
// Tool handlers are plain functions; inputs are decoded from JSON into
// the handler's input struct via reflection, optionally gated by schema
// validation first. A handler distinguishes two failure kinds:
//
//   - returning an error (or *protocol.Error) aborts the call at the
//     transport level, e.g. invalid parameters;
//   - returning a value whose IsError() reports true is a domain
//     failure, delivered inside a successful response with isError set.
//
// Division by zero, a city that cannot be geocoded or an upstream rate
// limit are domain failures. Missing or malformed arguments are not.
package server
