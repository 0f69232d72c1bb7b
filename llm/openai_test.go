package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenAICompleteSync(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}

		var req oaChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "gpt-4o" {
			t.Errorf("unexpected model %q", req.Model)
		}
		if req.Stream {
			t.Error("expected non-streaming request")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"choices": [{"message": {
				"content": "hello",
				"tool_calls": [{"id": "call_1", "function": {"name": "read_file", "arguments": "{\"path\":\"a.txt\"}"}}]
			}}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5}
		}`))
	}))
	defer server.Close()

	adapter := NewOpenAI("test-key", server.URL, "gpt-4o")
	result, err := adapter.Complete(context.Background(), CompletionRequest{
		Messages: []Message{UserMessage("hi")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Content != "hello" {
		t.Errorf("content = %q", result.Content)
	}
	if len(result.ToolCalls) != 1 || result.ToolCalls[0].ID != "call_1" || result.ToolCalls[0].Name != "read_file" {
		t.Errorf("tool calls = %+v", result.ToolCalls)
	}
	if result.Usage.PromptTokens != 10 || result.Usage.CompletionTokens != 5 {
		t.Errorf("usage = %+v", result.Usage)
	}
}

func TestOpenAICompleteStream(t *testing.T) {
	frames := []string{
		`data: {"choices":[{"delta":{"content":"hel"}}]}`,
		`not even close to json`,
		`data: {"choices":[{"delta":{"content":"lo"}}]}`,
		`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"id":"call_1","function":{"name":"add_task","arguments":"{\"title\":"}}]}}]}`,
		`data: {"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"x\"}"}}]}}]}`,
		`data: {"choices":[],"usage":{"prompt_tokens":7,"completion_tokens":3}}`,
		`data: [DONE]`,
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req oaChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if !req.Stream {
			t.Error("expected streaming request")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, frame := range frames {
			w.Write([]byte(frame + "\n\n"))
		}
	}))
	defer server.Close()

	var chunks []string
	adapter := NewOpenAI("test-key", server.URL, "gpt-4o")
	result, err := adapter.Complete(context.Background(), CompletionRequest{
		Messages: []Message{UserMessage("hi")},
		Stream:   true,
		OnChunk:  func(c string) { chunks = append(chunks, c) },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// accumulated content must equal the concatenation of emitted chunks
	if got := strings.Join(chunks, ""); got != result.Content {
		t.Errorf("chunks %q != content %q", got, result.Content)
	}
	if result.Content != "hello" {
		t.Errorf("content = %q", result.Content)
	}
	if len(result.ToolCalls) != 1 {
		t.Fatalf("tool calls = %+v", result.ToolCalls)
	}
	if result.ToolCalls[0].Name != "add_task" || string(result.ToolCalls[0].Arguments) != `{"title":"x"}` {
		t.Errorf("tool call = %+v", result.ToolCalls[0])
	}
	if result.Usage.PromptTokens != 7 || result.Usage.CompletionTokens != 3 {
		t.Errorf("usage = %+v", result.Usage)
	}
}

func TestOpenAICompleteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "Incorrect API key provided", "code": "invalid_api_key"}}`))
	}))
	defer server.Close()

	adapter := NewOpenAI("bad-key", server.URL, "gpt-4o")
	_, err := adapter.Complete(context.Background(), CompletionRequest{
		Messages: []Message{UserMessage("hi")},
	})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d", apiErr.StatusCode)
	}
	if !strings.Contains(apiErr.Message, "api_key") {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestOpenAICompleteUnconfigured(t *testing.T) {
	adapter := NewOpenAI("", "", "gpt-4o")
	_, err := adapter.Complete(context.Background(), CompletionRequest{
		Messages: []Message{UserMessage("hi")},
	})
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestOpenAIListModelsSentinelOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	server.Close() // connection refused from here on

	adapter := NewOpenAI("test-key", server.URL, "gpt-4o")
	models := adapter.ListModels(context.Background())
	if len(models) != 1 {
		t.Fatalf("models = %+v", models)
	}
	if models[0].ID != "connection-error" {
		t.Errorf("sentinel id = %q", models[0].ID)
	}
}

func TestOpenAIListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"data": [{"id": "gpt-4o"}, {"id": "gpt-4o-mini"}]}`))
	}))
	defer server.Close()

	adapter := NewOpenAI("test-key", server.URL, "gpt-4o")
	models := adapter.ListModels(context.Background())
	if len(models) != 2 || models[0].ID != "gpt-4o" {
		t.Errorf("models = %+v", models)
	}
}

func TestOpenAIParseError(t *testing.T) {
	adapter := NewOpenAI("k", "", "gpt-4o")
	cases := []struct {
		raw  string
		want string
	}{
		{"Incorrect API key provided", "invalid API key"},
		{"Rate limit reached for requests", "rate limited"},
		{"You exceeded your current quota, insufficient_quota", "quota"},
		{"The model `nope` does not exist", "not found"},
		{"something else entirely", "something else entirely"},
	}
	for _, tc := range cases {
		got := adapter.ParseError(tc.raw)
		if !strings.Contains(got, tc.want) {
			t.Errorf("ParseError(%q) = %q, want substring %q", tc.raw, got, tc.want)
		}
	}
}
