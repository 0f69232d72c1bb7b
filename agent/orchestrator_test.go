package agent

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/richinex/taskpilot/llm"
	"github.com/richinex/taskpilot/tools"
)

// scriptedAdapter returns canned completions in order and records the
// requests it saw.
type scriptedAdapter struct {
	script   []llm.CompletionResult
	requests []llm.CompletionRequest
}

func (s *scriptedAdapter) Name() string                  { return "scripted" }
func (s *scriptedAdapter) IsConfigured() bool            { return true }
func (s *scriptedAdapter) RequiredConfig() []llm.ConfigField { return nil }
func (s *scriptedAdapter) TestConnection(ctx context.Context) llm.ConnectionStatus {
	return llm.ConnectionStatus{Success: true}
}
func (s *scriptedAdapter) ListModels(ctx context.Context) []llm.Model { return nil }
func (s *scriptedAdapter) ParseError(raw string) string               { return raw }
func (s *scriptedAdapter) Complete(ctx context.Context, req llm.CompletionRequest) (llm.CompletionResult, error) {
	s.requests = append(s.requests, req)
	result := s.script[0]
	if len(s.script) > 1 {
		s.script = s.script[1:]
	}
	return result, nil
}

func newTestContext(t *testing.T) *tools.ExecutionContext {
	t.Helper()
	return &tools.ExecutionContext{
		Mode: tools.ModeAsk,
		Root: t.TempDir(),
	}
}

func TestRunPlainAnswer(t *testing.T) {
	adapter := &scriptedAdapter{script: []llm.CompletionResult{
		{Content: "just an answer", Usage: llm.Usage{PromptTokens: 3, CompletionTokens: 2}},
	}}
	registry := tools.DefaultRegistry()
	orchestrator := New(adapter, registry, tools.NewExecutor(registry, nil), 1, nil)

	messages := []llm.Message{llm.UserMessage("hi")}
	result, err := orchestrator.Run(context.Background(), messages, llm.CompletionRequest{}, newTestContext(t))
	if err != nil {
		t.Fatal(err)
	}
	if result.Content != "just an answer" {
		t.Errorf("content = %q", result.Content)
	}
	if len(adapter.requests) != 1 {
		t.Errorf("requests = %d", len(adapter.requests))
	}
	if len(adapter.requests[0].Tools) == 0 {
		t.Error("first request should advertise tools")
	}
	if got := len(result.Messages); got != 2 {
		t.Errorf("transcript length = %d", got)
	}
}

func TestRunOneToolRound(t *testing.T) {
	ec := newTestContext(t)
	if err := os.WriteFile(filepath.Join(ec.Root, "a.txt"), []byte("alpha"), 0o644); err != nil {
		t.Fatal(err)
	}

	adapter := &scriptedAdapter{script: []llm.CompletionResult{
		{
			ToolCalls: []llm.ToolCall{
				{ID: "call_1", Name: "read_file", Arguments: json.RawMessage(`{"path":"a.txt"}`)},
				{ID: "call_2", Name: "read_file", Arguments: json.RawMessage(`{"path":"missing.txt"}`)},
			},
			Usage: llm.Usage{PromptTokens: 5, CompletionTokens: 1},
		},
		{Content: "the file says alpha", Usage: llm.Usage{PromptTokens: 9, CompletionTokens: 4}},
	}}
	registry := tools.DefaultRegistry()
	orchestrator := New(adapter, registry, tools.NewExecutor(registry, nil), 1, nil)

	messages := []llm.Message{llm.UserMessage("what does a.txt say?")}
	result, err := orchestrator.Run(context.Background(), messages, llm.CompletionRequest{}, ec)
	if err != nil {
		t.Fatal(err)
	}
	if result.Content != "the file says alpha" {
		t.Errorf("content = %q", result.Content)
	}
	if len(adapter.requests) != 2 {
		t.Fatalf("requests = %d", len(adapter.requests))
	}
	// second request is the final round and must not advertise tools
	if len(adapter.requests[1].Tools) != 0 {
		t.Error("final request should not advertise tools")
	}

	// the follow-up request must carry both tool results, in order
	followUp := adapter.requests[1].Messages
	var toolResults []llm.Message
	for _, msg := range followUp {
		if msg.Role == llm.RoleTool {
			toolResults = append(toolResults, msg)
		}
	}
	if len(toolResults) != 2 {
		t.Fatalf("tool results = %+v", toolResults)
	}
	if toolResults[0].ToolCallID != "call_1" || toolResults[0].Content != "alpha" {
		t.Errorf("first result = %+v", toolResults[0])
	}
	if toolResults[1].ToolCallID != "call_2" || !strings.Contains(toolResults[1].Content, "does not exist") {
		t.Errorf("second result = %+v", toolResults[1])
	}

	// usage sums across both requests
	if result.Usage.PromptTokens != 14 || result.Usage.CompletionTokens != 5 {
		t.Errorf("usage = %+v", result.Usage)
	}
}

func TestRunBoundsToolRounds(t *testing.T) {
	// the model keeps asking for tools; the loop must cut it off
	adapter := &scriptedAdapter{script: []llm.CompletionResult{
		{ToolCalls: []llm.ToolCall{{ID: "c1", Name: "list_files", Arguments: json.RawMessage(`{}`)}}},
		{ToolCalls: []llm.ToolCall{{ID: "c2", Name: "list_files", Arguments: json.RawMessage(`{}`)}}},
		{Content: "final"},
	}}
	registry := tools.DefaultRegistry()
	orchestrator := New(adapter, registry, tools.NewExecutor(registry, nil), 2, nil)

	result, err := orchestrator.Run(context.Background(),
		[]llm.Message{llm.UserMessage("go")}, llm.CompletionRequest{}, newTestContext(t))
	if err != nil {
		t.Fatal(err)
	}
	if result.Content != "final" {
		t.Errorf("content = %q", result.Content)
	}
	if len(adapter.requests) != 3 {
		t.Errorf("requests = %d", len(adapter.requests))
	}
}

func TestRunDeniedToolFeedsDenialBack(t *testing.T) {
	ec := newTestContext(t)
	ec.Mode = tools.ModeAgent
	ec.Confirm = func(string) bool { return false }

	adapter := &scriptedAdapter{script: []llm.CompletionResult{
		{ToolCalls: []llm.ToolCall{{ID: "c1", Name: "write_file", Arguments: json.RawMessage(`{"path":"a.txt","content":"x"}`)}}},
		{Content: "understood, not writing"},
	}}
	registry := tools.DefaultRegistry()
	orchestrator := New(adapter, registry, tools.NewExecutor(registry, nil), 1, nil)

	result, err := orchestrator.Run(context.Background(),
		[]llm.Message{llm.UserMessage("write it")}, llm.CompletionRequest{}, ec)
	if err != nil {
		t.Fatalf("denial must not become an error: %v", err)
	}
	if result.Content != "understood, not writing" {
		t.Errorf("content = %q", result.Content)
	}

	var sawDenial bool
	for _, msg := range adapter.requests[1].Messages {
		if msg.Role == llm.RoleTool && strings.Contains(msg.Content, "permission denied") {
			sawDenial = true
		}
	}
	if !sawDenial {
		t.Error("denial was not fed back to the model")
	}
	if _, err := os.Stat(filepath.Join(ec.Root, "a.txt")); !os.IsNotExist(err) {
		t.Error("denied write still created the file")
	}
}

func TestNewDefaultsRounds(t *testing.T) {
	registry := tools.DefaultRegistry()
	o := New(&scriptedAdapter{}, registry, tools.NewExecutor(registry, nil), 0, nil)
	if o.rounds != DefaultMaxToolRounds {
		t.Errorf("rounds = %d", o.rounds)
	}
}
