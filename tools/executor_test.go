package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/richinex/taskpilot/llm"
)

func TestExecuteToolsOneResultPerCallInOrder(t *testing.T) {
	ec := testContext(t, ModeAsk)
	os.WriteFile(filepath.Join(ec.Root, "a.txt"), []byte("alpha"), 0o644)

	executor := NewExecutor(DefaultRegistry(), nil)
	calls := []llm.ToolCall{
		{ID: "call_1", Name: "read_file", Arguments: json.RawMessage(`{"path":"a.txt"}`)},
		{ID: "call_2", Name: "no_such_tool", Arguments: json.RawMessage(`{}`)},
		{ID: "call_3", Name: "read_file", Arguments: json.RawMessage(`{"path":"missing.txt"}`)},
	}

	results := executor.ExecuteTools(context.Background(), calls, ec)
	if len(results) != len(calls) {
		t.Fatalf("got %d results for %d calls", len(results), len(calls))
	}
	for i, result := range results {
		if result.Role != llm.RoleTool {
			t.Errorf("result %d role = %q", i, result.Role)
		}
		if result.ToolCallID != calls[i].ID {
			t.Errorf("result %d correlates to %q, want %q", i, result.ToolCallID, calls[i].ID)
		}
	}
	if results[0].Content != "alpha" {
		t.Errorf("result 0 = %q", results[0].Content)
	}
	if !strings.Contains(results[1].Content, "unknown tool") {
		t.Errorf("result 1 = %q", results[1].Content)
	}
	if !strings.Contains(results[2].Content, "does not exist") {
		t.Errorf("result 2 = %q", results[2].Content)
	}
}

func TestExecuteToolsDenialIsData(t *testing.T) {
	ec := testContext(t, ModeAgent)
	ec.Confirm = func(string) bool { return false }

	executor := NewExecutor(DefaultRegistry(), nil)
	results := executor.ExecuteTools(context.Background(), []llm.ToolCall{
		{ID: "call_1", Name: "write_file", Arguments: json.RawMessage(`{"path":"a.txt","content":"x"}`)},
	}, ec)

	if len(results) != 1 {
		t.Fatalf("results = %+v", results)
	}
	if !strings.Contains(results[0].Content, "permission denied") ||
		!strings.Contains(results[0].Content, "declined by user") {
		t.Errorf("content = %q", results[0].Content)
	}
	if _, err := os.Stat(filepath.Join(ec.Root, "a.txt")); !os.IsNotExist(err) {
		t.Error("denied write still created the file")
	}
}

func TestExecuteToolsAskModeMutationDenied(t *testing.T) {
	// even if the model names a mutating tool directly, ask mode refuses
	ec := testContext(t, ModeAsk)
	ec.Confirm = func(string) bool { return true }

	executor := NewExecutor(DefaultRegistry(), nil)
	results := executor.ExecuteTools(context.Background(), []llm.ToolCall{
		{ID: "call_1", Name: "write_file", Arguments: json.RawMessage(`{"path":"a.txt","content":"x"}`)},
	}, ec)

	if !strings.Contains(results[0].Content, "permission denied") ||
		!strings.Contains(results[0].Content, "not available in ask mode") {
		t.Errorf("content = %q", results[0].Content)
	}
}

func TestNormalizeArgs(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "{}"},
		{"null", "{}"},
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
	}
	for _, tc := range cases {
		got := string(normalizeArgs(json.RawMessage(tc.in)))
		if got != tc.want {
			t.Errorf("normalizeArgs(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
