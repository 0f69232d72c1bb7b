// DeepSeek adapter using the go-openai library.
//
// Information Hiding:
// - OpenAI-compatible API with a different base URL
// - SDK-level stream handling behind the Complete contract
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const deepseekDefaultBaseURL = "https://api.deepseek.com/v1"

// DeepSeekAdapter implements Adapter for DeepSeek.
type DeepSeekAdapter struct {
	client *openai.Client
	apiKey string
	model  string
}

// NewDeepSeek creates a DeepSeek adapter.
func NewDeepSeek(apiKey, baseURL, model string) *DeepSeekAdapter {
	if baseURL == "" {
		baseURL = deepseekDefaultBaseURL
	}
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = strings.TrimSuffix(baseURL, "/")

	return &DeepSeekAdapter{
		client: openai.NewClientWithConfig(config),
		apiKey: apiKey,
		model:  model,
	}
}

// Name returns the provider name.
func (d *DeepSeekAdapter) Name() string { return "deepseek" }

// IsConfigured reports whether an API key is present.
func (d *DeepSeekAdapter) IsConfigured() bool { return d.apiKey != "" }

// RequiredConfig declares the configuration surface.
func (d *DeepSeekAdapter) RequiredConfig() []ConfigField {
	return []ConfigField{
		{Key: "providers.deepseek.api_key", Description: "DeepSeek API key", Required: true},
		{Key: "providers.deepseek.base_url", Description: "API base URL (for proxies)", Required: false},
	}
}

// TestConnection lists models as a cheap authenticated probe.
func (d *DeepSeekAdapter) TestConnection(ctx context.Context) ConnectionStatus {
	if !d.IsConfigured() {
		return ConnectionStatus{Success: false, Message: "API key not configured"}
	}
	if _, err := d.client.ListModels(ctx); err != nil {
		return ConnectionStatus{Success: false, Message: d.ParseError(err.Error())}
	}
	return ConnectionStatus{Success: true, Message: "ok"}
}

// ListModels queries available models.
func (d *DeepSeekAdapter) ListModels(ctx context.Context) []Model {
	list, err := d.client.ListModels(ctx)
	if err != nil {
		return []Model{connectionErrorModel(d.Name(), err)}
	}
	models := make([]Model, 0, len(list.Models))
	for _, m := range list.Models {
		models = append(models, Model{ID: m.ID, Name: m.ID})
	}
	return models
}

// ParseError maps recognizable failure substrings to actionable guidance.
func (d *DeepSeekAdapter) ParseError(raw string) string {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "invalid api key"), strings.Contains(lower, "authentication fails"):
		return "invalid API key: check providers.deepseek.api_key"
	case strings.Contains(lower, "insufficient balance"):
		return "insufficient balance: top up your DeepSeek account"
	case strings.Contains(lower, "rate limit"):
		return "rate limited: slow down and retry later"
	case strings.Contains(lower, "model not exist"):
		return fmt.Sprintf("model %q not found: pick one from `taskpilot models`", d.model)
	default:
		return raw
	}
}

// Complete performs one completion, synchronous or streamed.
func (d *DeepSeekAdapter) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	if !d.IsConfigured() {
		return CompletionResult{}, &ConfigError{Provider: d.Name(), Key: "providers.deepseek.api_key"}
	}

	sdkReq := openai.ChatCompletionRequest{
		Model:       d.model,
		Messages:    toSDKMessages(req.Messages),
		Temperature: float32(req.Temperature),
		Tools:       toSDKTools(req.Tools),
	}
	if req.MaxTokens != 0 {
		sdkReq.MaxCompletionTokens = req.MaxTokens
	}

	if req.Stream {
		return d.completeStream(ctx, sdkReq, req.OnChunk)
	}
	return d.completeSync(ctx, sdkReq)
}

func (d *DeepSeekAdapter) completeSync(ctx context.Context, sdkReq openai.ChatCompletionRequest) (CompletionResult, error) {
	resp, err := d.client.CreateChatCompletion(ctx, sdkReq)
	if err != nil {
		return CompletionResult{}, d.wrapSDKError(err)
	}

	var result CompletionResult
	if len(resp.Choices) > 0 {
		msg := resp.Choices[0].Message
		result.Content = msg.Content
		for _, tc := range msg.ToolCalls {
			result.ToolCalls = append(result.ToolCalls, ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: json.RawMessage(tc.Function.Arguments),
			})
		}
	}
	result.Usage = Usage{PromptTokens: resp.Usage.PromptTokens, CompletionTokens: resp.Usage.CompletionTokens}
	return result, nil
}

func (d *DeepSeekAdapter) completeStream(ctx context.Context, sdkReq openai.ChatCompletionRequest, onChunk func(string)) (CompletionResult, error) {
	sdkReq.Stream = true
	sdkReq.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

	stream, err := d.client.CreateChatCompletionStream(ctx, sdkReq)
	if err != nil {
		return CompletionResult{}, d.wrapSDKError(err)
	}
	defer stream.Close()

	var (
		content strings.Builder
		usage   Usage
		accum   []openai.ToolCall
	)
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return CompletionResult{}, d.wrapSDKError(err)
		}

		if chunk.Usage != nil {
			usage = Usage{PromptTokens: chunk.Usage.PromptTokens, CompletionTokens: chunk.Usage.CompletionTokens}
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta
		if delta.Content != "" {
			content.WriteString(delta.Content)
			if onChunk != nil {
				onChunk(delta.Content)
			}
		}
		for _, tc := range delta.ToolCalls {
			idx := 0
			if tc.Index != nil {
				idx = *tc.Index
			}
			for len(accum) <= idx {
				accum = append(accum, openai.ToolCall{})
			}
			if tc.ID != "" {
				accum[idx].ID = tc.ID
			}
			if tc.Function.Name != "" {
				accum[idx].Function.Name = tc.Function.Name
			}
			accum[idx].Function.Arguments += tc.Function.Arguments
		}
	}

	result := CompletionResult{Content: content.String(), Usage: usage}
	for _, tc := range accum {
		args := tc.Function.Arguments
		if args == "" {
			args = "{}"
		}
		result.ToolCalls = append(result.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(args),
		})
	}
	return result, nil
}

// wrapSDKError normalizes go-openai errors into the adapter error types.
func (d *DeepSeekAdapter) wrapSDKError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{Provider: d.Name(), StatusCode: apiErr.HTTPStatusCode, Message: d.ParseError(apiErr.Message)}
	}
	return &NetworkError{Provider: d.Name(), Hint: "request failed", Err: err}
}

// toSDKMessages converts normalized messages to go-openai messages.
func toSDKMessages(messages []Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		m := openai.ChatCompletionMessage{
			Role:       msg.Role,
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		for _, tc := range msg.ToolCalls {
			m.ToolCalls = append(m.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: string(tc.Arguments),
				},
			})
		}
		result[i] = m
	}
	return result
}

// toSDKTools converts tool specs to go-openai tool definitions.
func toSDKTools(tools []ToolSpec) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}
	result := make([]openai.Tool, len(tools))
	for i, t := range tools {
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}
	return result
}

// Verify DeepSeekAdapter implements Adapter
var _ Adapter = (*DeepSeekAdapter)(nil)
