// Package tools provides the permissioned tool system for the assistant.
//
// Information Hiding:
// - Tool execution details hidden behind interface
// - Tool parameters and schemas hidden in implementations
// - Capability checks and permission prompts centralized in the gate
// - Registry implementation details hidden from consumers
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/richinex/taskpilot/storage"
)

// Capability names a class of side effect a tool may have.
type Capability string

const (
	CapReadFiles   Capability = "read_files"
	CapWriteFiles  Capability = "write_files"
	CapReadTasks   Capability = "read_tasks"
	CapModifyTasks Capability = "modify_tasks"
)

// Mode selects how much a session trusts the model.
type Mode string

const (
	// ModeAsk exposes only read-only tools; nothing mutates.
	ModeAsk Mode = "ask"
	// ModeAgent exposes every tool, mutations gated by confirmation.
	ModeAgent Mode = "agent"
)

// askCapabilities is the static set of capabilities available in ask mode.
var askCapabilities = map[Capability]bool{
	CapReadFiles: true,
	CapReadTasks: true,
}

// AllowedIn reports whether the capability is usable in the given mode.
func (c Capability) AllowedIn(mode Mode) bool {
	if mode == ModeAgent {
		return true
	}
	return askCapabilities[c]
}

// ToolParameter defines a parameter schema for a tool.
type ToolParameter struct {
	Name        string `json:"name"`
	ParamType   string `json:"param_type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// ToolMetadata describes what a tool does, how to call it, and what it
// is allowed to touch.
type ToolMetadata struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Parameters   []ToolParameter `json:"parameters"`
	Capabilities []Capability    `json:"capabilities"`
}

// AllowedIn reports whether every capability of the tool is usable in the
// given mode.
func (m ToolMetadata) AllowedIn(mode Mode) bool {
	for _, c := range m.Capabilities {
		if !c.AllowedIn(mode) {
			return false
		}
	}
	return true
}

// Schema builds the JSON Schema object describing the tool's parameters,
// in the shape every provider's tool declaration expects.
func (m ToolMetadata) Schema() map[string]interface{} {
	properties := make(map[string]interface{}, len(m.Parameters))
	var required []string
	for _, p := range m.Parameters {
		properties[p.Name] = map[string]interface{}{
			"type":        p.ParamType,
			"description": p.Description,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// ExecutionContext carries per-session dependencies into tool execution.
type ExecutionContext struct {
	Mode    Mode
	Root    string             // sandbox root for filesystem tools
	Confirm func(string) bool  // permission prompt, nil means deny
	Tasks   *storage.TaskStore // task-backed tools
	Logger  *slog.Logger
}

// OutcomeKind discriminates the ways a tool invocation can end.
type OutcomeKind int

const (
	// OutcomeSuccess means the tool ran and produced output.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeValidationError means the arguments were rejected before running.
	OutcomeValidationError
	// OutcomeDenied means the user or the mode refused permission.
	OutcomeDenied
	// OutcomeFault means the tool ran and failed.
	OutcomeFault
)

// Outcome is the result of one tool invocation. Every invocation yields an
// outcome; denials and bad arguments are data, not errors, so the model can
// read them and carry on.
type Outcome struct {
	Kind   OutcomeKind
	Output string
	Err    error
}

// Success reports whether the tool ran to completion.
func (o Outcome) Success() bool {
	return o.Kind == OutcomeSuccess
}

// Message renders the outcome as the text handed back to the model.
func (o Outcome) Message() string {
	switch o.Kind {
	case OutcomeSuccess:
		return o.Output
	case OutcomeValidationError:
		return fmt.Sprintf("invalid arguments: %v", o.Err)
	case OutcomeDenied:
		if o.Err != nil {
			return fmt.Sprintf("permission denied: %v", o.Err)
		}
		return "permission denied"
	default:
		return fmt.Sprintf("error: %v", o.Err)
	}
}

// SuccessOutcome creates a completed outcome.
func SuccessOutcome(output string) Outcome {
	return Outcome{Kind: OutcomeSuccess, Output: output}
}

// ValidationOutcome creates an argument-rejection outcome.
func ValidationOutcome(err error) Outcome {
	return Outcome{Kind: OutcomeValidationError, Err: err}
}

// ValidationOutcomef creates an argument-rejection outcome from a format string.
func ValidationOutcomef(format string, args ...interface{}) Outcome {
	return Outcome{Kind: OutcomeValidationError, Err: fmt.Errorf(format, args...)}
}

// DeniedOutcome creates a permission-refused outcome carrying the gate's
// refusal, so the model sees whether the mode or the user said no.
func DeniedOutcome(err error) Outcome {
	return Outcome{Kind: OutcomeDenied, Err: err}
}

// FaultOutcome creates a failed-execution outcome.
func FaultOutcome(err error) Outcome {
	return Outcome{Kind: OutcomeFault, Err: err}
}

// FaultOutcomef creates a failed-execution outcome from a format string.
func FaultOutcomef(format string, args ...interface{}) Outcome {
	return Outcome{Kind: OutcomeFault, Err: fmt.Errorf(format, args...)}
}

// Tool is the interface all tools implement.
//
// Information Hiding: implementations hide their execution logic, argument
// shapes, and error handling behind this interface.
type Tool interface {
	// Metadata returns tool metadata (name, description, parameters,
	// capabilities).
	Metadata() ToolMetadata

	// RequiresPermission returns a human-readable description of the
	// side effect the given invocation would have, or false when the
	// invocation needs no confirmation.
	RequiresPermission(args json.RawMessage) (string, bool)

	// Execute runs the tool with the given arguments.
	Execute(ctx context.Context, args json.RawMessage, ec *ExecutionContext) Outcome
}

// BaseTool provides a default RequiresPermission for read-only tools.
type BaseTool struct{}

// RequiresPermission reports no confirmation needed.
func (BaseTool) RequiresPermission(args json.RawMessage) (string, bool) {
	return "", false
}
