package storage

import (
	"context"
	"testing"

	"github.com/richinex/taskpilot/llm"
)

func TestSessionSaveAndLoad(t *testing.T) {
	sessions := testStore(t).Sessions()
	ctx := context.Background()

	messages := []llm.Message{
		llm.SystemMessage("sys"),
		llm.UserMessage("hello"),
		llm.AssistantMessage("hi there"),
	}
	if err := sessions.Save(ctx, "s1", messages); err != nil {
		t.Fatal(err)
	}

	loaded, err := sessions.Load(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 3 {
		t.Fatalf("loaded = %+v", loaded)
	}
	if loaded[1].Role != llm.RoleUser || loaded[1].Content != "hello" {
		t.Errorf("loaded[1] = %+v", loaded[1])
	}
}

func TestSessionSaveReplaces(t *testing.T) {
	sessions := testStore(t).Sessions()
	ctx := context.Background()

	sessions.Save(ctx, "s1", []llm.Message{llm.UserMessage("one")})
	sessions.Save(ctx, "s1", []llm.Message{
		llm.UserMessage("one"),
		llm.AssistantMessage("two"),
	})

	loaded, err := sessions.Load(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 2 {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestSessionSkipsEmptyContent(t *testing.T) {
	sessions := testStore(t).Sessions()
	ctx := context.Background()

	// assistant messages that only carried tool calls have no content
	sessions.Save(ctx, "s1", []llm.Message{
		llm.UserMessage("do it"),
		{Role: llm.RoleAssistant},
		llm.AssistantMessage("done"),
	})

	loaded, err := sessions.Load(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 2 {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestSessionSkipsToolRound(t *testing.T) {
	sessions := testStore(t).Sessions()
	ctx := context.Background()

	// a turn with one tool round: the request and result messages must not
	// survive a reload, since their call-id correlation does not
	sessions.Save(ctx, "s1", []llm.Message{
		llm.UserMessage("what tasks are open?"),
		{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{ID: "call_0", Name: "list_tasks"}}},
		llm.ToolResultMessage("call_0", "#1 water the plants"),
		llm.AssistantMessage("one open task: water the plants"),
	})

	loaded, err := sessions.Load(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded = %+v", loaded)
	}
	for _, msg := range loaded {
		if msg.Role == llm.RoleTool {
			t.Errorf("tool message survived reload: %+v", msg)
		}
		if len(msg.ToolCalls) > 0 {
			t.Errorf("tool calls survived reload: %+v", msg)
		}
	}
	if loaded[1].Role != llm.RoleAssistant || loaded[1].Content != "one open task: water the plants" {
		t.Errorf("loaded[1] = %+v", loaded[1])
	}
}

func TestSessionList(t *testing.T) {
	sessions := testStore(t).Sessions()
	ctx := context.Background()

	sessions.Save(ctx, "a", []llm.Message{llm.UserMessage("x")})
	sessions.Save(ctx, "b", []llm.Message{llm.UserMessage("y")})

	ids, err := sessions.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 {
		t.Errorf("ids = %v", ids)
	}
}

func TestSessionLoadUnknownIsEmpty(t *testing.T) {
	sessions := testStore(t).Sessions()
	loaded, err := sessions.Load(context.Background(), "nope")
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 0 {
		t.Errorf("loaded = %+v", loaded)
	}
}
