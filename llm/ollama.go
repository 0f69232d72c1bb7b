// Ollama adapter over the local chat API.
//
// Information Hiding:
// - Base URL and endpoint layout of a local Ollama daemon
// - Newline-delimited JSON streaming frames with done markers
// - eval_count / prompt_eval_count token accounting
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const ollamaDefaultBaseURL = "http://localhost:11434"

// OllamaAdapter implements Adapter for a local Ollama daemon.
type OllamaAdapter struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllama creates an Ollama adapter.
func NewOllama(baseURL, model string) *OllamaAdapter {
	if baseURL == "" {
		baseURL = ollamaDefaultBaseURL
	}
	return &OllamaAdapter{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client:  newHTTPClient(),
	}
}

// Name returns the provider name.
func (o *OllamaAdapter) Name() string { return "ollama" }

// IsConfigured always reports true; a local daemon needs no credentials.
func (o *OllamaAdapter) IsConfigured() bool { return true }

// RequiredConfig declares the configuration surface.
func (o *OllamaAdapter) RequiredConfig() []ConfigField {
	return []ConfigField{
		{Key: "providers.ollama.base_url", Description: "Ollama daemon URL (default http://localhost:11434)", Required: false},
	}
}

// TestConnection probes the daemon's tag listing.
func (o *OllamaAdapter) TestConnection(ctx context.Context) ConnectionStatus {
	var out ollamaTagList
	if err := getJSON(ctx, o.client, o.Name(), o.baseURL+"/api/tags", nil, &out); err != nil {
		return ConnectionStatus{Success: false, Message: o.ParseError(err.Error())}
	}
	return ConnectionStatus{Success: true, Message: fmt.Sprintf("ok (%d models installed)", len(out.Models))}
}

// ListModels queries locally installed models.
func (o *OllamaAdapter) ListModels(ctx context.Context) []Model {
	var out ollamaTagList
	if err := getJSON(ctx, o.client, o.Name(), o.baseURL+"/api/tags", nil, &out); err != nil {
		return []Model{connectionErrorModel(o.Name(), err)}
	}
	models := make([]Model, 0, len(out.Models))
	for _, m := range out.Models {
		models = append(models, Model{ID: m.Name, Name: m.Name})
	}
	return models
}

// ParseError maps recognizable failure substrings to actionable guidance.
func (o *OllamaAdapter) ParseError(raw string) string {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "connection refused"), strings.Contains(lower, "no such host"):
		return fmt.Sprintf("cannot reach %s: is Ollama running?", o.baseURL)
	case strings.Contains(lower, "not found"), strings.Contains(lower, "try pulling"):
		return fmt.Sprintf("model %q not installed: run `ollama pull %s`", o.model, o.model)
	default:
		return raw
	}
}

// Complete performs one completion, synchronous or streamed. The chat
// endpoint always streams NDJSON; for synchronous requests stream is set
// false and the body collapses to a single frame, decoded by the same loop.
func (o *OllamaAdapter) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	payload := ollamaChatRequest{
		Model:    o.model,
		Messages: toOllamaMessages(req.Messages),
		Tools:    toOllamaTools(req.Tools),
		Stream:   req.Stream,
	}
	if req.Temperature != 0 {
		payload.Options = &ollamaOptions{Temperature: req.Temperature}
	}
	if req.MaxTokens != 0 {
		if payload.Options == nil {
			payload.Options = &ollamaOptions{}
		}
		payload.Options.NumPredict = req.MaxTokens
	}

	resp, err := postJSON(ctx, o.client, o.Name(), o.baseURL+"/api/chat", nil, payload)
	if err != nil {
		return CompletionResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return CompletionResult{}, readAPIError(resp, o.Name(), o.ParseError)
	}

	var (
		content strings.Builder
		calls   []ToolCall
		usage   Usage
	)
	err = decodeNDJSON(ctx, resp.Body, func(line string) bool {
		var frame ollamaChatFrame
		if json.Unmarshal([]byte(line), &frame) != nil {
			return true // malformed line, skip
		}
		if frame.Message.Content != "" {
			content.WriteString(frame.Message.Content)
			if req.Stream && req.OnChunk != nil {
				req.OnChunk(frame.Message.Content)
			}
		}
		for _, tc := range frame.Message.ToolCalls {
			args, _ := json.Marshal(tc.Function.Arguments)
			calls = append(calls, ToolCall{
				ID:        fmt.Sprintf("call_%d", len(calls)),
				Name:      tc.Function.Name,
				Arguments: args,
			})
		}
		if frame.Done {
			usage = Usage{PromptTokens: frame.PromptEvalCount, CompletionTokens: frame.EvalCount}
			return false
		}
		return true
	})
	if err != nil {
		return CompletionResult{}, fmt.Errorf("stream decode: %w", err)
	}

	return CompletionResult{Content: content.String(), ToolCalls: calls, Usage: usage}, nil
}

// Wire types.

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Tools    []ollamaTool    `json:"tools,omitempty"`
	Stream   bool            `json:"stream"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
}

type ollamaToolCall struct {
	Function ollamaFunctionCall `json:"function"`
}

type ollamaFunctionCall struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

type ollamaTool struct {
	Type     string             `json:"type"`
	Function ollamaFunctionSpec `json:"function"`
}

type ollamaFunctionSpec struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

type ollamaChatFrame struct {
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	EvalCount       int           `json:"eval_count"`
	PromptEvalCount int           `json:"prompt_eval_count"`
}

type ollamaTagList struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// toOllamaMessages converts normalized messages to the wire shape. Tool
// results keep the tool role; Ollama correlates them by position.
func toOllamaMessages(messages []Message) []ollamaMessage {
	result := make([]ollamaMessage, 0, len(messages))
	for _, msg := range messages {
		om := ollamaMessage{Role: msg.Role, Content: msg.Content}
		for _, tc := range msg.ToolCalls {
			args := map[string]interface{}{}
			_ = json.Unmarshal(tc.Arguments, &args)
			om.ToolCalls = append(om.ToolCalls, ollamaToolCall{
				Function: ollamaFunctionCall{Name: tc.Name, Arguments: args},
			})
		}
		result = append(result, om)
	}
	return result
}

// toOllamaTools converts tool specs to the wire shape.
func toOllamaTools(tools []ToolSpec) []ollamaTool {
	if len(tools) == 0 {
		return nil
	}
	result := make([]ollamaTool, len(tools))
	for i, t := range tools {
		result[i] = ollamaTool{
			Type: "function",
			Function: ollamaFunctionSpec{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}
	return result
}

// Verify OllamaAdapter implements Adapter
var _ Adapter = (*OllamaAdapter)(nil)
