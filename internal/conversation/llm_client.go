package conversation

import "context"

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
	ChatRoleTool      = "tool"
)

// ChatMessage is an internal message representation. Tool result messages
// carry the tool name in Name and the JSON-encoded result in Content;
// assistant messages that requested a tool carry the request in ToolCall.
type ChatMessage struct {
	Role     string    `json:"role"`
	Content  string    `json:"content"`
	Name     string    `json:"name,omitempty"`
	ToolCall *ToolCall `json:"tool_call,omitempty"`
}

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// ToolParam describes one parameter of a tool.
type ToolParam struct {
	Type        string // "string" or "integer"
	Description string
	Required    bool
}

// ToolDefinition is a provider-neutral function declaration.
type ToolDefinition struct {
	Name        string
	Description string
	Params      map[string]ToolParam
}

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

type LLMRequest struct {
	Model       string
	System      []string
	Messages    []ChatMessage
	Tools       []ToolDefinition
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

// LLMResponse carries either text or a tool call; a turn that requests a
// tool has ToolCall set and usually empty Text.
type LLMResponse struct {
	Text       string
	ToolCall   *ToolCall
	Usage      TokenUsage
	StopReason string
}

type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}
