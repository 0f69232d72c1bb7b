// Package llm provides the provider abstraction for conversational backends.
//
// Each adapter implementation hides:
// - API endpoint, authentication scheme, and header names
// - Request/response field naming for its wire protocol
// - Streaming envelope decoding (SSE frames or newline-delimited JSON)
// - Provider-specific error message translation
package llm

import "encoding/json"

// Message roles used in a conversation.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents a single conversation message.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // assistant messages requesting tools
	ToolCallID string     `json:"tool_call_id,omitempty"` // tool result messages
}

// SystemMessage creates a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ToolResultMessage creates a tool result message correlated to a tool call id.
func ToolResultMessage(callID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID}
}

// ToolCall is a model-issued request to invoke a named tool.
// The ID is opaque and must be echoed back on the corresponding result
// message so the backend can correlate the two.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolSpec describes a tool offered to the model.
type ToolSpec struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"` // JSON Schema
}

// CompletionRequest is a normalized completion request.
type CompletionRequest struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
	Stream      bool
	// OnChunk, if set alongside Stream, receives each content delta in
	// arrival order, exactly once. The concatenation of all chunks equals
	// CompletionResult.Content.
	OnChunk func(string)
	Tools   []ToolSpec
}

// CompletionResult is a normalized completion result.
type CompletionResult struct {
	Content   string
	ToolCalls []ToolCall
	Usage     Usage
}

// Usage contains normalized token counters. Zero when the backend
// reported none.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Model describes a model offered by a backend. Produced transiently by
// ListModels and never persisted.
type Model struct {
	ID          string
	Name        string
	Description string
}

// ConfigField declares one configuration key an adapter reads.
type ConfigField struct {
	Key         string
	Description string
	Required    bool
}

// ConnectionStatus is the outcome of a connection test.
type ConnectionStatus struct {
	Success bool
	Message string
}
