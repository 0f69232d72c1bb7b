// Task list tools backed by the SQLite store.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ListTasksTool lists tasks.
type ListTasksTool struct {
	BaseTool
}

// NewListTasksTool creates a new list tasks tool.
func NewListTasksTool() *ListTasksTool {
	return &ListTasksTool{}
}

// Metadata returns the tool metadata.
func (t *ListTasksTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        "list_tasks",
		Description: "List tasks from the task list",
		Parameters: []ToolParameter{
			{Name: "include_done", ParamType: "boolean", Description: "Include completed tasks (default false)", Required: false},
		},
		Capabilities: []Capability{CapReadTasks},
	}
}

type listTasksArgs struct {
	IncludeDone bool `json:"include_done"`
}

// Execute renders the task list, one task per line.
func (t *ListTasksTool) Execute(ctx context.Context, args json.RawMessage, ec *ExecutionContext) Outcome {
	var a listTasksArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return ValidationOutcome(err)
	}

	tasks, err := ec.Tasks.List(ctx, a.IncludeDone)
	if err != nil {
		return FaultOutcome(err)
	}
	if len(tasks) == 0 {
		return SuccessOutcome("no tasks")
	}

	var b strings.Builder
	for _, task := range tasks {
		status := " "
		if task.Done {
			status = "x"
		}
		fmt.Fprintf(&b, "[%s] #%d %s", status, task.ID, task.Title)
		if task.Notes != "" {
			fmt.Fprintf(&b, " (%s)", task.Notes)
		}
		b.WriteByte('\n')
	}
	return SuccessOutcome(strings.TrimRight(b.String(), "\n"))
}

// AddTaskTool creates a task.
type AddTaskTool struct{}

// NewAddTaskTool creates a new add task tool.
func NewAddTaskTool() *AddTaskTool {
	return &AddTaskTool{}
}

// Metadata returns the tool metadata.
func (t *AddTaskTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        "add_task",
		Description: "Add a new task to the task list",
		Parameters: []ToolParameter{
			{Name: "title", ParamType: "string", Description: "Short task title", Required: true},
			{Name: "notes", ParamType: "string", Description: "Optional free-form notes", Required: false},
		},
		Capabilities: []Capability{CapModifyTasks},
	}
}

type addTaskArgs struct {
	Title string `json:"title"`
	Notes string `json:"notes"`
}

// RequiresPermission describes the pending insert for confirmation.
func (t *AddTaskTool) RequiresPermission(args json.RawMessage) (string, bool) {
	var a addTaskArgs
	_ = json.Unmarshal(args, &a)
	return fmt.Sprintf("Add task %q", a.Title), true
}

// Execute inserts the task.
func (t *AddTaskTool) Execute(ctx context.Context, args json.RawMessage, ec *ExecutionContext) Outcome {
	var a addTaskArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return ValidationOutcome(err)
	}
	if a.Title == "" {
		return ValidationOutcomef("title cannot be empty")
	}

	task, err := ec.Tasks.Add(ctx, a.Title, a.Notes)
	if err != nil {
		return FaultOutcome(err)
	}
	return SuccessOutcome(fmt.Sprintf("added task #%d: %s", task.ID, task.Title))
}

// CompleteTaskTool marks a task done.
type CompleteTaskTool struct{}

// NewCompleteTaskTool creates a new complete task tool.
func NewCompleteTaskTool() *CompleteTaskTool {
	return &CompleteTaskTool{}
}

// Metadata returns the tool metadata.
func (t *CompleteTaskTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        "complete_task",
		Description: "Mark a task as done",
		Parameters: []ToolParameter{
			{Name: "id", ParamType: "integer", Description: "Task id to complete", Required: true},
		},
		Capabilities: []Capability{CapModifyTasks},
	}
}

type completeTaskArgs struct {
	ID int64 `json:"id"`
}

// RequiresPermission describes the pending update for confirmation.
func (t *CompleteTaskTool) RequiresPermission(args json.RawMessage) (string, bool) {
	var a completeTaskArgs
	_ = json.Unmarshal(args, &a)
	return fmt.Sprintf("Mark task #%d as done", a.ID), true
}

// Execute completes the task.
func (t *CompleteTaskTool) Execute(ctx context.Context, args json.RawMessage, ec *ExecutionContext) Outcome {
	var a completeTaskArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return ValidationOutcome(err)
	}
	if a.ID == 0 {
		return ValidationOutcomef("id is required")
	}

	task, err := ec.Tasks.Complete(ctx, a.ID)
	if err != nil {
		return FaultOutcome(err)
	}
	return SuccessOutcome(fmt.Sprintf("completed task #%d: %s", task.ID, task.Title))
}

// DefaultRegistry builds a registry holding every builtin tool.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, tool := range []Tool{
		NewReadFileTool(),
		NewListFilesTool(),
		NewWriteFileTool(),
		NewEditFileTool(),
		NewListTasksTool(),
		NewAddTaskTool(),
		NewCompleteTaskTool(),
	} {
		// names are unique here, Register cannot fail
		_ = r.Register(tool)
	}
	return r
}
