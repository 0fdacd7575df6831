package protocol

// MCP protocol version advertised during the initialize handshake.
const MCPVersion = "2024-11-05"

// MCP method names.
const (
	MethodInitialize    = "initialize"
	MethodToolsList     = "tools/list"
	MethodToolsCall     = "tools/call"
	MethodResourcesList = "resources/list"
	MethodResourcesRead = "resources/read"
	MethodPromptsList   = "prompts/list"
	MethodPromptsGet    = "prompts/get"
	MethodPing          = "ping"
)

// MCP notification methods.
const (
	MethodProgress = "notifications/progress"
)
