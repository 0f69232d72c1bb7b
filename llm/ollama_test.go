package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOllamaCompleteStream(t *testing.T) {
	frames := []string{
		`{"message":{"role":"assistant","content":"hel"},"done":false}`,
		`this line is not json and must be skipped`,
		`{"message":{"role":"assistant","content":"lo"},"done":false}`,
		`{"message":{"role":"assistant","content":""},"done":true,"prompt_eval_count":11,"eval_count":2}`,
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		for _, frame := range frames {
			w.Write([]byte(frame + "\n"))
		}
	}))
	defer server.Close()

	var chunks []string
	adapter := NewOllama(server.URL, "llama3.2")
	result, err := adapter.Complete(context.Background(), CompletionRequest{
		Messages: []Message{UserMessage("hi")},
		Stream:   true,
		OnChunk:  func(c string) { chunks = append(chunks, c) },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Join(chunks, ""); got != result.Content {
		t.Errorf("chunks %q != content %q", got, result.Content)
	}
	if result.Content != "hello" {
		t.Errorf("content = %q", result.Content)
	}
	if result.Usage.PromptTokens != 11 || result.Usage.CompletionTokens != 2 {
		t.Errorf("usage = %+v", result.Usage)
	}
}

func TestOllamaCompleteToolCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":{"role":"assistant","content":"","tool_calls":[{"function":{"name":"list_tasks","arguments":{"include_done":false}}}]},"done":true,"prompt_eval_count":5,"eval_count":1}` + "\n"))
	}))
	defer server.Close()

	adapter := NewOllama(server.URL, "llama3.2")
	result, err := adapter.Complete(context.Background(), CompletionRequest{
		Messages: []Message{UserMessage("list my tasks")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.ToolCalls) != 1 {
		t.Fatalf("tool calls = %+v", result.ToolCalls)
	}
	call := result.ToolCalls[0]
	if call.Name != "list_tasks" || call.ID == "" {
		t.Errorf("tool call = %+v", call)
	}
}

func TestOllamaIsConfigured(t *testing.T) {
	if !NewOllama("", "llama3.2").IsConfigured() {
		t.Error("local daemon needs no credentials")
	}
}

func TestOllamaListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"models": [{"name": "llama3.2:latest"}, {"name": "qwen2.5:7b"}]}`))
	}))
	defer server.Close()

	models := NewOllama(server.URL, "llama3.2").ListModels(context.Background())
	if len(models) != 2 || models[0].ID != "llama3.2:latest" {
		t.Errorf("models = %+v", models)
	}
}

func TestOllamaParseErrorConnectionRefused(t *testing.T) {
	adapter := NewOllama("http://localhost:1", "llama3.2")
	got := adapter.ParseError("dial tcp 127.0.0.1:1: connect: connection refused")
	if !strings.Contains(got, "is Ollama running?") {
		t.Errorf("got %q", got)
	}
}
