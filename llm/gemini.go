// Google Gemini adapter using the official google.golang.org/genai SDK.
//
// Information Hiding:
// - API authentication and client creation
// - System instruction handling via generation config
// - FunctionCall / FunctionResponse content parts
// - Streaming via the SDK's iterator
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiAdapter implements Adapter for Google Gemini.
type GeminiAdapter struct {
	client  *genai.Client
	apiKey  string
	model   string
	initErr error // client initialization error, reported on first use
}

// NewGemini creates a Gemini adapter. If client initialization fails the
// error is stored and surfaced on first use, keeping the constructor
// signature uniform with the other adapters.
func NewGemini(apiKey, model string) *GeminiAdapter {
	a := &GeminiAdapter{apiKey: apiKey, model: model}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		a.initErr = fmt.Errorf("initialize gemini client: %w", err)
		return a
	}
	a.client = client
	return a
}

// Name returns the provider name.
func (g *GeminiAdapter) Name() string { return "gemini" }

// IsConfigured reports whether an API key is present.
func (g *GeminiAdapter) IsConfigured() bool { return g.apiKey != "" }

// RequiredConfig declares the configuration surface.
func (g *GeminiAdapter) RequiredConfig() []ConfigField {
	return []ConfigField{
		{Key: "providers.gemini.api_key", Description: "Google AI Studio API key", Required: true},
	}
}

// TestConnection lists models as a cheap authenticated probe.
func (g *GeminiAdapter) TestConnection(ctx context.Context) ConnectionStatus {
	if !g.IsConfigured() {
		return ConnectionStatus{Success: false, Message: "API key not configured"}
	}
	if err := g.ready(); err != nil {
		return ConnectionStatus{Success: false, Message: err.Error()}
	}
	if _, err := g.client.Models.List(ctx, &genai.ListModelsConfig{}); err != nil {
		return ConnectionStatus{Success: false, Message: g.ParseError(err.Error())}
	}
	return ConnectionStatus{Success: true, Message: "ok"}
}

// ListModels queries available models, keeping only generateContent models.
func (g *GeminiAdapter) ListModels(ctx context.Context) []Model {
	if err := g.ready(); err != nil {
		return []Model{connectionErrorModel(g.Name(), err)}
	}
	page, err := g.client.Models.List(ctx, &genai.ListModelsConfig{})
	if err != nil {
		return []Model{connectionErrorModel(g.Name(), err)}
	}
	var models []Model
	for _, m := range page.Items {
		supported := false
		for _, action := range m.SupportedActions {
			if action == "generateContent" {
				supported = true
				break
			}
		}
		if !supported {
			continue
		}
		models = append(models, Model{
			ID:          strings.TrimPrefix(m.Name, "models/"),
			Name:        m.DisplayName,
			Description: m.Description,
		})
	}
	return models
}

// ParseError maps recognizable failure substrings to actionable guidance.
func (g *GeminiAdapter) ParseError(raw string) string {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "api key not valid"), strings.Contains(lower, "api_key_invalid"):
		return "invalid API key: check providers.gemini.api_key"
	case strings.Contains(lower, "resource_exhausted"), strings.Contains(lower, "quota"):
		return "quota exceeded: slow down or check your plan"
	case strings.Contains(lower, "not_found"), strings.Contains(lower, "is not found"):
		return fmt.Sprintf("model %q not found: pick one from `taskpilot models`", g.model)
	default:
		return raw
	}
}

// Complete performs one completion, synchronous or streamed.
func (g *GeminiAdapter) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	if !g.IsConfigured() {
		return CompletionResult{}, &ConfigError{Provider: g.Name(), Key: "providers.gemini.api_key"}
	}
	if err := g.ready(); err != nil {
		return CompletionResult{}, err
	}

	contents, system := toGeminiContents(req.Messages)

	config := &genai.GenerateContentConfig{
		Tools: toGeminiTools(req.Tools),
	}
	if req.Temperature != 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.MaxTokens != 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	if req.Stream {
		return g.completeStream(ctx, contents, config, req.OnChunk)
	}
	return g.completeSync(ctx, contents, config)
}

func (g *GeminiAdapter) completeSync(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (CompletionResult, error) {
	response, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return CompletionResult{}, &NetworkError{Provider: g.Name(), Hint: g.ParseError(err.Error()), Err: err}
	}

	var result CompletionResult
	if len(response.Candidates) > 0 && response.Candidates[0].Content != nil {
		for _, part := range response.Candidates[0].Content.Parts {
			if part.Text != "" {
				result.Content += part.Text
			}
			if part.FunctionCall != nil {
				args, _ := json.Marshal(part.FunctionCall.Args)
				result.ToolCalls = append(result.ToolCalls, ToolCall{
					ID:        part.FunctionCall.Name, // Gemini uses name as ID
					Name:      part.FunctionCall.Name,
					Arguments: args,
				})
			}
		}
	}
	result.Usage = geminiUsage(response)
	return result, nil
}

func (g *GeminiAdapter) completeStream(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig, onChunk func(string)) (CompletionResult, error) {
	var (
		content strings.Builder
		calls   []ToolCall
		usage   Usage
	)
	for response, err := range g.client.Models.GenerateContentStream(ctx, g.model, contents, config) {
		if err != nil {
			return CompletionResult{}, &NetworkError{Provider: g.Name(), Hint: g.ParseError(err.Error()), Err: err}
		}
		usage = geminiUsage(response)

		if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
			continue
		}
		for _, part := range response.Candidates[0].Content.Parts {
			if part.Text != "" {
				content.WriteString(part.Text)
				if onChunk != nil {
					onChunk(part.Text)
				}
			}
			if part.FunctionCall != nil {
				args, _ := json.Marshal(part.FunctionCall.Args)
				calls = append(calls, ToolCall{
					ID:        part.FunctionCall.Name,
					Name:      part.FunctionCall.Name,
					Arguments: args,
				})
			}
		}
	}

	return CompletionResult{Content: content.String(), ToolCalls: calls, Usage: usage}, nil
}

func (g *GeminiAdapter) ready() error {
	if g.initErr != nil {
		return g.initErr
	}
	if g.client == nil {
		return fmt.Errorf("gemini client not initialized")
	}
	return nil
}

func geminiUsage(response *genai.GenerateContentResponse) Usage {
	if response.UsageMetadata == nil {
		return Usage{}
	}
	return Usage{
		PromptTokens:     int(response.UsageMetadata.PromptTokenCount),
		CompletionTokens: int(response.UsageMetadata.CandidatesTokenCount),
	}
}

// toGeminiContents converts normalized messages to Gemini contents. The
// system message is returned separately for the system instruction, tool
// results become FunctionResponse parts on user-role contents.
func toGeminiContents(messages []Message) ([]*genai.Content, string) {
	var (
		contents []*genai.Content
		system   string
	)

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			system = msg.Content
		case RoleUser:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		case RoleAssistant:
			if len(msg.ToolCalls) == 0 {
				contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
				continue
			}
			content := &genai.Content{Role: genai.RoleModel}
			if msg.Content != "" {
				content.Parts = append(content.Parts, &genai.Part{Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				var args map[string]any
				_ = json.Unmarshal(tc.Arguments, &args)
				content.Parts = append(content.Parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{Name: tc.Name, Args: args},
				})
			}
			contents = append(contents, content)
		case RoleTool:
			var result map[string]any
			_ = json.Unmarshal([]byte(msg.Content), &result)
			if result == nil {
				result = map[string]any{"result": msg.Content}
			}
			contents = append(contents, &genai.Content{
				Role: genai.RoleUser, // Gemini expects tool results as user
				Parts: []*genai.Part{{
					FunctionResponse: &genai.FunctionResponse{
						Name:     msg.ToolCallID,
						Response: result,
					},
				}},
			})
		}
	}

	return contents, system
}

// toGeminiTools converts tool specs to Gemini function declarations.
func toGeminiTools(tools []ToolSpec) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}
	var declarations []*genai.FunctionDeclaration
	for _, t := range tools {
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  toGeminiSchema(t.Parameters),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

// toGeminiSchema converts a JSON Schema object to Gemini's typed schema.
func toGeminiSchema(params map[string]interface{}) *genai.Schema {
	schema := &genai.Schema{Type: genai.TypeObject}

	if t, ok := params["type"].(string); ok {
		schema.Type = toGeminiType(t)
	}
	if req, ok := params["required"].([]interface{}); ok {
		for _, r := range req {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}
	if req, ok := params["required"].([]string); ok {
		schema.Required = req
	}
	if props, ok := params["properties"].(map[string]interface{}); ok {
		schema.Properties = make(map[string]*genai.Schema)
		for name, prop := range props {
			propMap, ok := prop.(map[string]interface{})
			if !ok {
				continue
			}
			schema.Properties[name] = toGeminiPropertySchema(propMap)
		}
	}
	return schema
}

// toGeminiPropertySchema converts a single property schema.
func toGeminiPropertySchema(prop map[string]interface{}) *genai.Schema {
	schema := &genai.Schema{}

	if t, ok := prop["type"].(string); ok {
		schema.Type = toGeminiType(t)
	}
	if d, ok := prop["description"].(string); ok {
		schema.Description = d
	}
	// Gemini requires 'items' for arrays
	if schema.Type == genai.TypeArray {
		if items, ok := prop["items"].(map[string]interface{}); ok {
			schema.Items = toGeminiPropertySchema(items)
		} else {
			schema.Items = &genai.Schema{Type: genai.TypeString}
		}
	}
	if schema.Type == genai.TypeObject {
		if props, ok := prop["properties"].(map[string]interface{}); ok {
			schema.Properties = make(map[string]*genai.Schema)
			for name, p := range props {
				if pMap, ok := p.(map[string]interface{}); ok {
					schema.Properties[name] = toGeminiPropertySchema(pMap)
				}
			}
		}
	}
	return schema
}

// toGeminiType maps JSON Schema types to Gemini types.
func toGeminiType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "integer", "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// Verify GeminiAdapter implements Adapter
var _ Adapter = (*GeminiAdapter)(nil)
