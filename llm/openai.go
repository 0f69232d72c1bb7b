// OpenAI adapter over the Chat Completions wire protocol.
//
// Information Hiding:
// - Bearer token authentication
// - Chat Completions request/response field names
// - SSE streaming envelope (`data: {...}` frames, literal [DONE] sentinel)
// - Token usage arriving on the final streamed chunk via stream_options
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const openAIDefaultBaseURL = "https://api.openai.com/v1"

// OpenAIAdapter implements Adapter for OpenAI.
type OpenAIAdapter struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewOpenAI creates an OpenAI adapter. An empty baseURL selects the public
// endpoint; tests point it at a local mock server.
func NewOpenAI(apiKey, baseURL, model string) *OpenAIAdapter {
	if baseURL == "" {
		baseURL = openAIDefaultBaseURL
	}
	return &OpenAIAdapter{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client:  newHTTPClient(),
	}
}

// Name returns the provider name.
func (a *OpenAIAdapter) Name() string { return "openai" }

// IsConfigured reports whether an API key is present.
func (a *OpenAIAdapter) IsConfigured() bool { return a.apiKey != "" }

// RequiredConfig declares the configuration surface.
func (a *OpenAIAdapter) RequiredConfig() []ConfigField {
	return []ConfigField{
		{Key: "providers.openai.api_key", Description: "OpenAI API key", Required: true},
		{Key: "providers.openai.base_url", Description: "API base URL (for proxies)", Required: false},
	}
}

// TestConnection issues a lightweight model-list call.
func (a *OpenAIAdapter) TestConnection(ctx context.Context) ConnectionStatus {
	if !a.IsConfigured() {
		return ConnectionStatus{Success: false, Message: "API key not configured"}
	}
	var out oaModelList
	if err := getJSON(ctx, a.client, a.Name(), a.baseURL+"/models", a.headers(), &out); err != nil {
		return ConnectionStatus{Success: false, Message: a.ParseError(err.Error())}
	}
	return ConnectionStatus{Success: true, Message: fmt.Sprintf("%d models available", len(out.Data))}
}

// ListModels queries the models endpoint.
func (a *OpenAIAdapter) ListModels(ctx context.Context) []Model {
	var out oaModelList
	if err := getJSON(ctx, a.client, a.Name(), a.baseURL+"/models", a.headers(), &out); err != nil {
		return []Model{connectionErrorModel(a.Name(), err)}
	}
	models := make([]Model, 0, len(out.Data))
	for _, m := range out.Data {
		models = append(models, Model{ID: m.ID, Name: m.ID})
	}
	return models
}

// ParseError maps recognizable failure substrings to actionable guidance.
func (a *OpenAIAdapter) ParseError(raw string) string {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "invalid_api_key"), strings.Contains(lower, "incorrect api key"):
		return "invalid API key: check providers.openai.api_key"
	case strings.Contains(lower, "rate_limit"), strings.Contains(lower, "rate limit"):
		return "rate limited: slow down or upgrade your plan"
	case strings.Contains(lower, "insufficient_quota"):
		return "quota exhausted: check your OpenAI billing"
	case strings.Contains(lower, "model_not_found"), strings.Contains(lower, "does not exist"):
		return fmt.Sprintf("model %q not found: pick one from `taskpilot models`", a.model)
	default:
		return raw
	}
}

// Complete performs one completion, synchronous or streamed.
func (a *OpenAIAdapter) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	if !a.IsConfigured() {
		return CompletionResult{}, &ConfigError{Provider: a.Name(), Key: "providers.openai.api_key"}
	}

	payload := oaChatRequest{
		Model:       a.model,
		Messages:    toOAMessages(req.Messages),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Tools:       toOATools(req.Tools),
	}
	if req.Stream {
		payload.Stream = true
		payload.StreamOptions = &oaStreamOptions{IncludeUsage: true}
	}

	resp, err := postJSON(ctx, a.client, a.Name(), a.baseURL+"/chat/completions", a.headers(), payload)
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

func (a *OpenAIAdapter) decodeSync(resp *http.Response) (CompletionResult, error) {
	var out oaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return CompletionResult{}, fmt.Errorf("decode response: %w", err)
	}

	var result CompletionResult
	if len(out.Choices) > 0 {
		msg := out.Choices[0].Message
		result.Content = msg.Content
		for _, tc := range msg.ToolCalls {
			result.ToolCalls = append(result.ToolCalls, ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: json.RawMessage(tc.Function.Arguments),
			})
		}
	}
	if out.Usage != nil {
		result.Usage = Usage{PromptTokens: out.Usage.PromptTokens, CompletionTokens: out.Usage.CompletionTokens}
	}
	return result, nil
}

func (a *OpenAIAdapter) decodeStream(ctx context.Context, resp *http.Response, onChunk func(string)) (CompletionResult, error) {
	var (
		content strings.Builder
		usage   Usage
		calls   []oaStreamToolCall
	)

	err := decodeSSE(ctx, resp.Body, func(data string) bool {
		var chunk oaStreamChunk
		if json.Unmarshal([]byte(data), &chunk) != nil {
			return true // keep-alive or malformed frame, skip
		}
		if chunk.Usage != nil {
			usage = Usage{PromptTokens: chunk.Usage.PromptTokens, CompletionTokens: chunk.Usage.CompletionTokens}
		}
		if len(chunk.Choices) == 0 {
			return true
		}
		delta := chunk.Choices[0].Delta
		if delta.Content != "" {
			content.WriteString(delta.Content)
			if onChunk != nil {
				onChunk(delta.Content)
			}
		}
		for _, tc := range delta.ToolCalls {
			for len(calls) <= tc.Index {
				calls = append(calls, oaStreamToolCall{})
			}
			if tc.ID != "" {
				calls[tc.Index].ID = tc.ID
			}
			if tc.Function.Name != "" {
				calls[tc.Index].Name = tc.Function.Name
			}
			calls[tc.Index].Arguments += tc.Function.Arguments
		}
		return true
	})
	if err != nil {
		return CompletionResult{}, fmt.Errorf("stream decode: %w", err)
	}

	result := CompletionResult{Content: content.String(), Usage: usage}
	for _, c := range calls {
		if c.Name == "" {
			continue
		}
		args := c.Arguments
		if args == "" {
			args = "{}"
		}
		result.ToolCalls = append(result.ToolCalls, ToolCall{ID: c.ID, Name: c.Name, Arguments: json.RawMessage(args)})
	}
	return result, nil
}

func (a *OpenAIAdapter) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + a.apiKey}
}

// Wire types. These never leak outside the adapter.

type oaChatRequest struct {
	Model         string           `json:"model"`
	Messages      []oaMessage      `json:"messages"`
	Temperature   float64          `json:"temperature,omitempty"`
	MaxTokens     int              `json:"max_tokens,omitempty"`
	Stream        bool             `json:"stream,omitempty"`
	StreamOptions *oaStreamOptions `json:"stream_options,omitempty"`
	Tools         []oaTool         `json:"tools,omitempty"`
}

type oaStreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type oaMessage struct {
	Role       string       `json:"role"`
	Content    string       `json:"content"`
	ToolCalls  []oaToolCall `json:"tool_calls,omitempty"`
	ToolCallID string       `json:"tool_call_id,omitempty"`
}

type oaToolCall struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Function oaFunctionCall `json:"function"`
}

type oaFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type oaTool struct {
	Type     string        `json:"type"`
	Function oaFunctionDef `json:"function"`
}

type oaFunctionDef struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

type oaChatResponse struct {
	Choices []struct {
		Message oaMessage `json:"message"`
	} `json:"choices"`
	Usage *oaUsage `json:"usage"`
}

type oaUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type oaStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Index    int            `json:"index"`
				ID       string         `json:"id"`
				Function oaFunctionCall `json:"function"`
			} `json:"tool_calls"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *oaUsage `json:"usage"`
}

// oaStreamToolCall accumulates a tool call across streamed deltas.
type oaStreamToolCall struct {
	ID        string
	Name      string
	Arguments string
}

type oaModelList struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// toOAMessages converts normalized messages to the wire shape.
func toOAMessages(messages []Message) []oaMessage {
	result := make([]oaMessage, len(messages))
	for i, msg := range messages {
		m := oaMessage{Role: msg.Role, Content: msg.Content, ToolCallID: msg.ToolCallID}
		for _, tc := range msg.ToolCalls {
			m.ToolCalls = append(m.ToolCalls, oaToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: oaFunctionCall{
					Name:      tc.Name,
					Arguments: string(tc.Arguments),
				},
			})
		}
		result[i] = m
	}
	return result
}

// toOATools converts tool specs to the wire shape.
func toOATools(tools []ToolSpec) []oaTool {
	if len(tools) == 0 {
		return nil
	}
	result := make([]oaTool, len(tools))
	for i, t := range tools {
		result[i] = oaTool{
			Type: "function",
			Function: oaFunctionDef{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}
	return result
}

// connectionErrorModel is the sentinel entry a failed ListModels yields.
func connectionErrorModel(provider string, err error) Model {
	return Model{
		ID:          "connection-error",
		Name:        "connection error",
		Description: fmt.Sprintf("%s: %v", provider, err),
	}
}

// Verify OpenAIAdapter implements Adapter
var _ Adapter = (*OpenAIAdapter)(nil)
