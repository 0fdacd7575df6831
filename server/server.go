package server

import (
	"fmt"
	"sync"

	"github.com/toolrpc/toolrpc/protocol"
)

// ErrDuplicateTool is returned when a tool name is registered twice.
// Tool names are the registry key; the advertised capability set would be
// ambiguous otherwise.
var ErrDuplicateTool = fmt.Errorf("tool already registered")

// Info contains server metadata exposed to clients.
type Info struct {
	Name        string
	Version     string
	Description string
}

// Manifest represents the server manifest returned to clients.
type Manifest struct {
	Name            string `json:"name"`
	Version         string `json:"version"`
	Description     string `json:"description,omitempty"`
	ProtocolVersion string `json:"protocolVersion"`
}

// ToolInfo represents metadata about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
	InputSchema any
}

// Option configures a Server.
type Option func(*Server)

// Server is the tool server instance. The registries are populated once
// at startup and read-only afterwards; the lock exists for the benefit of
// tests that register while a transport is already serving.
type Server struct {
	mu sync.RWMutex

	info      Info
	tools     map[string]*Tool
	toolOrder []string
	resources map[string]*Resource
	prompts   map[string]*Prompt
}

// New creates a new server with the given info and options.
func New(info Info, opts ...Option) *Server {
	s := &Server{
		info:      info,
		tools:     make(map[string]*Tool),
		resources: make(map[string]*Resource),
		prompts:   make(map[string]*Prompt),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Info returns the server info.
func (s *Server) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// Tool starts building a new tool with the given name.
func (s *Server) Tool(name string) *ToolBuilder {
	return &ToolBuilder{
		tool: &Tool{
			name: name,
		},
		server: s,
	}
}

// Tools returns info about all registered tools, in registration order.
// The order is stable so tools/list output is deterministic.
func (s *Server) Tools() []ToolInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]ToolInfo, 0, len(s.toolOrder))
	for _, name := range s.toolOrder {
		t := s.tools[name]
		result = append(result, ToolInfo{
			Name:        t.name,
			Description: t.description,
			InputSchema: t.inputSchema,
		})
	}
	return result
}

// ToolNames returns the registered tool names in registration order.
func (s *Server) ToolNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, len(s.toolOrder))
	copy(names, s.toolOrder)
	return names
}

// Manifest returns the server manifest for the initialize handshake.
func (s *Server) Manifest() Manifest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Manifest{
		Name:            s.info.Name,
		Version:         s.info.Version,
		Description:     s.info.Description,
		ProtocolVersion: protocol.MCPVersion,
	}
}

// registerTool adds a tool to the server, rejecting duplicate names.
func (s *Server) registerTool(t *Tool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tools[t.name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, t.name)
	}
	s.tools[t.name] = t
	s.toolOrder = append(s.toolOrder, t.name)
	return nil
}

// GetTool retrieves a tool by name.
func (s *Server) GetTool(name string) (*Tool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tools[name]
	return t, ok
}

// Resource starts building a new resource with the given URI template.
func (s *Server) Resource(uriTemplate string) *ResourceBuilder {
	return &ResourceBuilder{
		resource: &Resource{
			uriTemplate: uriTemplate,
		},
		server: s,
	}
}

// Resources returns info about all registered resources.
func (s *Server) Resources() []ResourceInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]ResourceInfo, 0, len(s.resources))
	for _, r := range s.resources {
		result = append(result, ResourceInfo{
			URITemplate: r.uriTemplate,
			Name:        r.name,
			Description: r.description,
			MimeType:    r.mimeType,
		})
	}
	return result
}

// HasResources reports whether any resources are registered.
func (s *Server) HasResources() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.resources) > 0
}

// registerResource adds a resource to the server.
func (s *Server) registerResource(r *Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[r.uriTemplate] = r
}

// FindResourceForURI finds a resource that matches the given URI.
func (s *Server) FindResourceForURI(uri string) (*Resource, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.resources {
		if _, ok := matchURI(r.uriTemplate, uri); ok {
			return r, true
		}
	}
	return nil, false
}

// Prompt starts building a new prompt with the given name.
func (s *Server) Prompt(name string) *PromptBuilder {
	return &PromptBuilder{
		prompt: &Prompt{
			name: name,
		},
		server: s,
	}
}

// Prompts returns info about all registered prompts.
func (s *Server) Prompts() []PromptInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]PromptInfo, 0, len(s.prompts))
	for _, p := range s.prompts {
		result = append(result, PromptInfo{
			Name:        p.name,
			Description: p.description,
			Arguments:   p.arguments,
		})
	}
	return result
}

// HasPrompts reports whether any prompts are registered.
func (s *Server) HasPrompts() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.prompts) > 0
}

// registerPrompt adds a prompt to the server.
func (s *Server) registerPrompt(p *Prompt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts[p.name] = p
}

// GetPrompt retrieves a prompt by name.
func (s *Server) GetPrompt(name string) (*Prompt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prompts[name]
	return p, ok
}
