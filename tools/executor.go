// Tool execution over a batch of model-requested calls.
//
// Information Hiding:
// - Per-call error handling internalized; callers always get one result
//   message per requested call, in request order
// - Argument recovery for sloppily formatted JSON
package tools

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/richinex/taskpilot/internal/jsonx"
	"github.com/richinex/taskpilot/llm"
)

// Executor runs model-requested tool calls against the registry.
type Executor struct {
	registry *Registry
	logger   *slog.Logger
}

// NewExecutor creates an executor over the given registry.
func NewExecutor(registry *Registry, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{registry: registry, logger: logger}
}

// ExecuteTools runs every requested call and returns exactly one tool-result
// message per call, in request order, correlated by call ID. A failing,
// denied, or unknown tool yields a result message describing the problem;
// it never aborts the batch and never retries.
func (e *Executor) ExecuteTools(ctx context.Context, calls []llm.ToolCall, ec *ExecutionContext) []llm.Message {
	results := make([]llm.Message, len(calls))
	for i, call := range calls {
		outcome := e.executeOne(ctx, call, ec)
		e.logger.Debug("tool executed",
			"tool", call.Name,
			"call_id", call.ID,
			"success", outcome.Success(),
		)
		results[i] = llm.ToolResultMessage(call.ID, outcome.Message())
	}
	return results
}

func (e *Executor) executeOne(ctx context.Context, call llm.ToolCall, ec *ExecutionContext) Outcome {
	tool, ok := e.registry.Get(call.Name)
	if !ok {
		return ValidationOutcomef("unknown tool %q", call.Name)
	}

	args := normalizeArgs(call.Arguments)

	gate := &Gate{Mode: ec.Mode, Confirm: ec.Confirm}
	if err := gate.Check(tool, args); err != nil {
		e.logger.Info("tool denied", "tool", call.Name, "reason", err)
		return DeniedOutcome(err)
	}

	return tool.Execute(ctx, args, ec)
}

// normalizeArgs coerces the raw argument payload into a JSON object.
// Providers occasionally send empty arguments or JSON wrapped in fences.
func normalizeArgs(raw json.RawMessage) json.RawMessage {
	trimmed := string(raw)
	if trimmed == "" || trimmed == "null" {
		return json.RawMessage("{}")
	}
	if json.Valid(raw) {
		return raw
	}
	if recovered, err := jsonx.Extract(trimmed); err == nil {
		return json.RawMessage(recovered)
	}
	return raw
}
