// Anthropic adapter over the Messages wire protocol.
//
// Information Hiding:
// - x-api-key / anthropic-version header authentication
// - System prompt extraction and strict user/assistant alternation
// - Content-block request/response shapes (text, tool_use, tool_result)
// - SSE streaming envelope and its event frames
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const (
	anthropicDefaultBaseURL = "https://api.anthropic.com"
	anthropicVersion        = "2023-06-01"
)

// AnthropicAdapter implements Adapter for Anthropic Claude.
type AnthropicAdapter struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewAnthropic creates an Anthropic adapter.
func NewAnthropic(apiKey, baseURL, model string) *AnthropicAdapter {
	if baseURL == "" {
		baseURL = anthropicDefaultBaseURL
	}
	return &AnthropicAdapter{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client:  newHTTPClient(),
	}
}

// Name returns the provider name.
func (a *AnthropicAdapter) Name() string { return "anthropic" }

// IsConfigured reports whether an API key is present.
func (a *AnthropicAdapter) IsConfigured() bool { return a.apiKey != "" }

// RequiredConfig declares the configuration surface.
func (a *AnthropicAdapter) RequiredConfig() []ConfigField {
	return []ConfigField{
		{Key: "providers.anthropic.api_key", Description: "Anthropic API key", Required: true},
		{Key: "providers.anthropic.base_url", Description: "API base URL (for proxies)", Required: false},
	}
}

// TestConnection issues a one-token completion.
func (a *AnthropicAdapter) TestConnection(ctx context.Context) ConnectionStatus {
	if !a.IsConfigured() {
		return ConnectionStatus{Success: false, Message: "API key not configured"}
	}
	_, err := a.Complete(ctx, CompletionRequest{
		Messages:  []Message{UserMessage("ping")},
		MaxTokens: 1,
	})
	if err != nil {
		return ConnectionStatus{Success: false, Message: err.Error()}
	}
	return ConnectionStatus{Success: true, Message: "ok"}
}

// ListModels queries the models endpoint.
func (a *AnthropicAdapter) ListModels(ctx context.Context) []Model {
	var out struct {
		Data []struct {
			ID          string `json:"id"`
			DisplayName string `json:"display_name"`
		} `json:"data"`
	}
	if err := getJSON(ctx, a.client, a.Name(), a.baseURL+"/v1/models", a.headers(), &out); err != nil {
		return []Model{connectionErrorModel(a.Name(), err)}
	}
	models := make([]Model, 0, len(out.Data))
	for _, m := range out.Data {
		models = append(models, Model{ID: m.ID, Name: m.DisplayName})
	}
	return models
}

// ParseError maps recognizable failure substrings to actionable guidance.
func (a *AnthropicAdapter) ParseError(raw string) string {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "authentication_error"), strings.Contains(lower, "invalid x-api-key"):
		return "invalid API key: check providers.anthropic.api_key"
	case strings.Contains(lower, "rate_limit_error"), strings.Contains(lower, "overloaded"):
		return "rate limited: slow down and retry later"
	case strings.Contains(lower, "not_found_error"):
		return fmt.Sprintf("model %q not found: pick one from `taskpilot models`", a.model)
	default:
		return raw
	}
}

// Complete performs one completion, synchronous or streamed.
func (a *AnthropicAdapter) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	if !a.IsConfigured() {
		return CompletionResult{}, &ConfigError{Provider: a.Name(), Key: "providers.anthropic.api_key"}
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096 // the Messages API requires max_tokens
	}

	messages, system := toAnthropicMessages(req.Messages)
	payload := anthropicRequest{
		Model:       a.model,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		System:      system,
		Messages:    messages,
		Tools:       toAnthropicTools(req.Tools),
		Stream:      req.Stream,
	}

	resp, err := postJSON(ctx, a.client, a.Name(), a.baseURL+"/v1/messages", a.headers(), payload)
	if err != nil {
		return CompletionResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return CompletionResult{}, readAPIError(resp, a.Name(), a.ParseError)
	}

	if req.Stream {
		return a.decodeStream(ctx, resp, req.OnChunk)
	}
	return a.decodeSync(resp)
}

func (a *AnthropicAdapter) decodeSync(resp *http.Response) (CompletionResult, error) {
	var out anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return CompletionResult{}, fmt.Errorf("decode response: %w", err)
	}

	var result CompletionResult
	for _, block := range out.Content {
		switch block.Type {
		case "text":
			result.Content += block.Text
		case "tool_use":
			args, _ := json.Marshal(block.Input)
			result.ToolCalls = append(result.ToolCalls, ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: args,
			})
		}
	}
	result.Usage = Usage{PromptTokens: out.Usage.InputTokens, CompletionTokens: out.Usage.OutputTokens}
	return result, nil
}

func (a *AnthropicAdapter) decodeStream(ctx context.Context, resp *http.Response, onChunk func(string)) (CompletionResult, error) {
	var (
		content strings.Builder
		usage   Usage
		blocks  = map[int]*anthropicToolAccum{}
		order   []int
	)

	err := decodeSSE(ctx, resp.Body, func(data string) bool {
		var event anthropicStreamEvent
		if json.Unmarshal([]byte(data), &event) != nil {
			return true // keep-alive or malformed frame, skip
		}
		switch event.Type {
		case "message_start":
			if event.Message != nil {
				usage.PromptTokens = event.Message.Usage.InputTokens
			}
		case "content_block_start":
			if event.ContentBlock != nil && event.ContentBlock.Type == "tool_use" {
				blocks[event.Index] = &anthropicToolAccum{ID: event.ContentBlock.ID, Name: event.ContentBlock.Name}
				order = append(order, event.Index)
			}
		case "content_block_delta":
			if event.Delta == nil {
				return true
			}
			switch event.Delta.Type {
			case "text_delta":
				if event.Delta.Text != "" {
					content.WriteString(event.Delta.Text)
					if onChunk != nil {
						onChunk(event.Delta.Text)
					}
				}
			case "input_json_delta":
				if acc, ok := blocks[event.Index]; ok {
					acc.JSON += event.Delta.PartialJSON
				}
			}
		case "message_delta":
			if event.Usage != nil {
				usage.CompletionTokens = event.Usage.OutputTokens
			}
		case "message_stop":
			return false
		}
		return true
	})
	if err != nil {
		return CompletionResult{}, fmt.Errorf("stream decode: %w", err)
	}

	result := CompletionResult{Content: content.String(), Usage: usage}
	for _, idx := range order {
		acc := blocks[idx]
		args := acc.JSON
		if args == "" {
			args = "{}"
		}
		result.ToolCalls = append(result.ToolCalls, ToolCall{ID: acc.ID, Name: acc.Name, Arguments: json.RawMessage(args)})
	}
	return result, nil
}

func (a *AnthropicAdapter) headers() map[string]string {
	return map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": anthropicVersion,
	}
}

// Wire types.

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature,omitempty"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Tools       []anthropicTool    `json:"tools,omitempty"`
	Stream      bool               `json:"stream,omitempty"`
}

type anthropicMessage struct {
	Role    string           `json:"role"`
	Content []anthropicBlock `json:"content"`
}

type anthropicBlock struct {
	Type      string                 `json:"type"`
	Text      string                 `json:"text,omitempty"`
	ID        string                 `json:"id,omitempty"`
	Name      string                 `json:"name,omitempty"`
	Input     map[string]interface{} `json:"input,omitempty"`
	ToolUseID string                 `json:"tool_use_id,omitempty"`
	Content   string                 `json:"content,omitempty"`
}

type anthropicTool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"input_schema"`
}

type anthropicResponse struct {
	Content []struct {
		Type  string                 `json:"type"`
		Text  string                 `json:"text"`
		ID    string                 `json:"id"`
		Name  string                 `json:"name"`
		Input map[string]interface{} `json:"input"`
	} `json:"content"`
	Usage anthropicUsage `json:"usage"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicStreamEvent struct {
	Type    string `json:"type"`
	Index   int    `json:"index"`
	Message *struct {
		Usage anthropicUsage `json:"usage"`
	} `json:"message"`
	ContentBlock *struct {
		Type string `json:"type"`
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"content_block"`
	Delta *struct {
		Type        string `json:"type"`
		Text        string `json:"text"`
		PartialJSON string `json:"partial_json"`
	} `json:"delta"`
	Usage *struct {
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// anthropicToolAccum accumulates a tool_use block across streamed deltas.
type anthropicToolAccum struct {
	ID   string
	Name string
	JSON string
}

// toAnthropicMessages converts normalized messages to the wire shape. The
// system message is extracted into its own field, tool results become
// tool_result blocks on user messages, and consecutive same-role messages
// are merged to satisfy the API's strict user/assistant alternation.
func toAnthropicMessages(messages []Message) ([]anthropicMessage, string) {
	var (
		result []anthropicMessage
		system string
	)

	appendBlocks := func(role string, blocks ...anthropicBlock) {
		if n := len(result); n > 0 && result[n-1].Role == role {
			result[n-1].Content = append(result[n-1].Content, blocks...)
			return
		}
		result = append(result, anthropicMessage{Role: role, Content: blocks})
	}

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			system = msg.Content
		case RoleUser:
			appendBlocks("user", anthropicBlock{Type: "text", Text: msg.Content})
		case RoleAssistant:
			var blocks []anthropicBlock
			if msg.Content != "" {
				blocks = append(blocks, anthropicBlock{Type: "text", Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				input := map[string]interface{}{}
				_ = json.Unmarshal(tc.Arguments, &input)
				blocks = append(blocks, anthropicBlock{Type: "tool_use", ID: tc.ID, Name: tc.Name, Input: input})
			}
			if len(blocks) > 0 {
				appendBlocks("assistant", blocks...)
			}
		case RoleTool:
			appendBlocks("user", anthropicBlock{Type: "tool_result", ToolUseID: msg.ToolCallID, Content: msg.Content})
		}
	}

	return result, system
}

// toAnthropicTools converts tool specs to the wire shape.
func toAnthropicTools(tools []ToolSpec) []anthropicTool {
	if len(tools) == 0 {
		return nil
	}
	result := make([]anthropicTool, len(tools))
	for i, t := range tools {
		result[i] = anthropicTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Parameters,
		}
	}
	return result
}

// Verify AnthropicAdapter implements Adapter
var _ Adapter = (*AnthropicAdapter)(nil)
