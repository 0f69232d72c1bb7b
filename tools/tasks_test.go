package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/richinex/taskpilot/storage"
)

func taskContext(t *testing.T) *ExecutionContext {
	t.Helper()
	store, err := storage.OpenInMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return &ExecutionContext{
		Mode:  ModeAgent,
		Root:  t.TempDir(),
		Tasks: store.Tasks(),
	}
}

func TestAddAndListTasks(t *testing.T) {
	ec := taskContext(t)
	ctx := context.Background()

	outcome := NewAddTaskTool().Execute(ctx, json.RawMessage(`{"title":"buy milk","notes":"2%"}`), ec)
	if !outcome.Success() {
		t.Fatalf("add outcome = %+v", outcome)
	}
	if !strings.Contains(outcome.Output, "buy milk") {
		t.Errorf("output = %q", outcome.Output)
	}

	outcome = NewListTasksTool().Execute(ctx, json.RawMessage(`{}`), ec)
	if !outcome.Success() {
		t.Fatalf("list outcome = %+v", outcome)
	}
	if !strings.Contains(outcome.Output, "buy milk") || !strings.Contains(outcome.Output, "2%") {
		t.Errorf("output = %q", outcome.Output)
	}
}

func TestAddTaskEmptyTitle(t *testing.T) {
	ec := taskContext(t)
	outcome := NewAddTaskTool().Execute(context.Background(), json.RawMessage(`{"title":""}`), ec)
	if outcome.Kind != OutcomeValidationError {
		t.Fatalf("outcome = %+v", outcome)
	}
}

func TestCompleteTask(t *testing.T) {
	ec := taskContext(t)
	ctx := context.Background()

	task, err := ec.Tasks.Add(ctx, "write tests", "")
	if err != nil {
		t.Fatal(err)
	}

	args, _ := json.Marshal(map[string]int64{"id": task.ID})
	outcome := NewCompleteTaskTool().Execute(ctx, args, ec)
	if !outcome.Success() {
		t.Fatalf("outcome = %+v", outcome)
	}

	// completed tasks drop out of the default listing
	listed := NewListTasksTool().Execute(ctx, json.RawMessage(`{}`), ec)
	if listed.Output != "no tasks" {
		t.Errorf("open tasks = %q", listed.Output)
	}
	all := NewListTasksTool().Execute(ctx, json.RawMessage(`{"include_done":true}`), ec)
	if !strings.Contains(all.Output, "[x]") {
		t.Errorf("all tasks = %q", all.Output)
	}
}

func TestCompleteTaskUnknownID(t *testing.T) {
	ec := taskContext(t)
	outcome := NewCompleteTaskTool().Execute(context.Background(), json.RawMessage(`{"id":999}`), ec)
	if outcome.Kind != OutcomeFault {
		t.Fatalf("outcome = %+v", outcome)
	}
	if !strings.Contains(outcome.Message(), "not found") {
		t.Errorf("message = %q", outcome.Message())
	}
}
