// Package agent drives completions through the tool-execution loop.
//
// Information Hiding:
// - Round accounting and transcript threading hidden from callers
// - Tool round bounding internalized
package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/richinex/taskpilot/llm"
	"github.com/richinex/taskpilot/tools"
)

// DefaultMaxToolRounds bounds how many times a single user turn may loop
// through tool execution before the model must answer in plain text.
const DefaultMaxToolRounds = 1

// Orchestrator runs one user turn against a provider, executing any tool
// calls the model requests and feeding the results back.
type Orchestrator struct {
	adapter  llm.Adapter
	registry *tools.Registry
	executor *tools.Executor
	rounds   int
	logger   *slog.Logger
}

// New creates an orchestrator. maxToolRounds <= 0 selects the default.
func New(adapter llm.Adapter, registry *tools.Registry, executor *tools.Executor, maxToolRounds int, logger *slog.Logger) *Orchestrator {
	if maxToolRounds <= 0 {
		maxToolRounds = DefaultMaxToolRounds
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		adapter:  adapter,
		registry: registry,
		executor: executor,
		rounds:   maxToolRounds,
		logger:   logger,
	}
}

// Result is the outcome of one user turn.
type Result struct {
	// Messages is the transcript including every assistant and tool-result
	// message this turn appended. Callers thread it into the next turn.
	Messages []llm.Message
	// Content is the model's final text answer.
	Content string
	// Usage is summed across every request this turn made.
	Usage llm.Usage
}

// Run completes one user turn. The transcript must already end with the
// user's message. Tool calls are executed for at most the configured number
// of rounds; the final request is sent without tools so the model has to
// produce text.
func (o *Orchestrator) Run(ctx context.Context, messages []llm.Message, req llm.CompletionRequest, ec *tools.ExecutionContext) (Result, error) {
	result := Result{Messages: messages}
	specs := o.registry.SpecsFor(ec.Mode)

	for round := 0; ; round++ {
		turn := req
		turn.Messages = result.Messages
		if round < o.rounds {
			turn.Tools = specs
		}

		completion, err := o.adapter.Complete(ctx, turn)
		if err != nil {
			return result, fmt.Errorf("completion: %w", err)
		}
		result.Usage.PromptTokens += completion.Usage.PromptTokens
		result.Usage.CompletionTokens += completion.Usage.CompletionTokens

		if len(completion.ToolCalls) == 0 || round >= o.rounds {
			result.Content = completion.Content
			if completion.Content != "" {
				result.Messages = append(result.Messages, llm.AssistantMessage(completion.Content))
			}
			return result, nil
		}

		o.logger.Debug("tool round",
			"round", round+1,
			"calls", len(completion.ToolCalls),
		)

		assistant := llm.AssistantMessage(completion.Content)
		assistant.ToolCalls = completion.ToolCalls
		result.Messages = append(result.Messages, assistant)

		toolResults := o.executor.ExecuteTools(ctx, completion.ToolCalls, ec)
		result.Messages = append(result.Messages, toolResults...)
	}
}
