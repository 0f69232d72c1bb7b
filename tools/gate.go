// Permission gate between the model's tool requests and execution.
package tools

import (
	"encoding/json"
	"fmt"
)

// PermissionDeniedError reports a tool invocation refused by the gate.
type PermissionDeniedError struct {
	Tool   string
	Reason string
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("tool %q: %s", e.Tool, e.Reason)
}

// Gate decides whether a requested tool invocation may run. Ask mode never
// advertises mutating tools, but the gate rechecks the capability set anyway
// so a model hallucinating a tool name cannot slip a mutation through.
type Gate struct {
	Mode    Mode
	Confirm func(string) bool
}

// Check returns nil when the invocation may proceed, or a
// PermissionDeniedError describing the refusal.
func (g *Gate) Check(tool Tool, args json.RawMessage) error {
	meta := tool.Metadata()
	if !meta.AllowedIn(g.Mode) {
		return &PermissionDeniedError{Tool: meta.Name, Reason: fmt.Sprintf("not available in %s mode", g.Mode)}
	}

	prompt, needed := tool.RequiresPermission(args)
	if !needed {
		return nil
	}
	if g.Confirm == nil || !g.Confirm(prompt) {
		return &PermissionDeniedError{Tool: meta.Name, Reason: "declined by user"}
	}
	return nil
}
