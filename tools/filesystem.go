// Filesystem tools - read, list, write, edit inside the working directory.
//
// Information Hiding:
// - File I/O implementation details hidden
// - Path containment checks hidden
// - Error handling for file operations abstracted
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const maxReadBytes = 1 << 20 // 1 MiB

// resolveInRoot resolves a model-supplied path against the sandbox root and
// rejects anything that escapes it. Absolute paths and ../ traversal both
// fail the containment check; the model only ever sees the working tree.
func resolveInRoot(root, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	resolved := path
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(absRoot, resolved)
	}
	resolved = filepath.Clean(resolved)

	rel, err := filepath.Rel(absRoot, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside the working directory", path)
	}
	return resolved, nil
}

// ReadFileTool reads file contents.
type ReadFileTool struct {
	BaseTool
}

// NewReadFileTool creates a new read file tool.
func NewReadFileTool() *ReadFileTool {
	return &ReadFileTool{}
}

// Metadata returns the tool metadata.
func (t *ReadFileTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        "read_file",
		Description: "Read the contents of a file in the working directory",
		Parameters: []ToolParameter{
			{Name: "path", ParamType: "string", Description: "Path to the file, relative to the working directory", Required: true},
		},
		Capabilities: []Capability{CapReadFiles},
	}
}

type readFileArgs struct {
	Path string `json:"path"`
}

// Execute reads the file.
func (t *ReadFileTool) Execute(ctx context.Context, args json.RawMessage, ec *ExecutionContext) Outcome {
	var a readFileArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return ValidationOutcome(err)
	}

	path, err := resolveInRoot(ec.Root, a.Path)
	if err != nil {
		return ValidationOutcome(err)
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return FaultOutcomef("file does not exist: %s", a.Path)
	}
	if err != nil {
		return FaultOutcome(fmt.Errorf("stat file: %w", err))
	}
	if info.Size() > maxReadBytes {
		return FaultOutcomef("file too large: %d bytes (max %d)", info.Size(), maxReadBytes)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return FaultOutcome(fmt.Errorf("read file: %w", err))
	}
	return SuccessOutcome(string(content))
}

// ListFilesTool lists a directory.
type ListFilesTool struct {
	BaseTool
}

// NewListFilesTool creates a new list files tool.
func NewListFilesTool() *ListFilesTool {
	return &ListFilesTool{}
}

// Metadata returns the tool metadata.
func (t *ListFilesTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        "list_files",
		Description: "List files and directories at a path in the working directory",
		Parameters: []ToolParameter{
			{Name: "path", ParamType: "string", Description: "Directory to list, relative to the working directory (default: the working directory itself)", Required: false},
		},
		Capabilities: []Capability{CapReadFiles},
	}
}

type listFilesArgs struct {
	Path string `json:"path"`
}

// Execute lists the directory entries, directories suffixed with a slash.
func (t *ListFilesTool) Execute(ctx context.Context, args json.RawMessage, ec *ExecutionContext) Outcome {
	var a listFilesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return ValidationOutcome(err)
	}
	if a.Path == "" {
		a.Path = "."
	}

	path, err := resolveInRoot(ec.Root, a.Path)
	if err != nil {
		return ValidationOutcome(err)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return FaultOutcome(fmt.Errorf("read directory: %w", err))
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return SuccessOutcome(strings.Join(names, "\n"))
}

// WriteFileTool writes a file, creating parent directories as needed.
type WriteFileTool struct{}

// NewWriteFileTool creates a new write file tool.
func NewWriteFileTool() *WriteFileTool {
	return &WriteFileTool{}
}

// Metadata returns the tool metadata.
func (t *WriteFileTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        "write_file",
		Description: "Write content to a file in the working directory, replacing any existing content",
		Parameters: []ToolParameter{
			{Name: "path", ParamType: "string", Description: "Path to the file, relative to the working directory", Required: true},
			{Name: "content", ParamType: "string", Description: "Content to write", Required: true},
		},
		Capabilities: []Capability{CapWriteFiles},
	}
}

type writeFileArgs struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// RequiresPermission describes the pending write for confirmation.
func (t *WriteFileTool) RequiresPermission(args json.RawMessage) (string, bool) {
	var a writeFileArgs
	_ = json.Unmarshal(args, &a)
	return fmt.Sprintf("Write %d bytes to %s", len(a.Content), a.Path), true
}

// Execute writes the file.
func (t *WriteFileTool) Execute(ctx context.Context, args json.RawMessage, ec *ExecutionContext) Outcome {
	var a writeFileArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return ValidationOutcome(err)
	}

	path, err := resolveInRoot(ec.Root, a.Path)
	if err != nil {
		return ValidationOutcome(err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return FaultOutcome(fmt.Errorf("create parent directories: %w", err))
	}
	if err := os.WriteFile(path, []byte(a.Content), 0o644); err != nil {
		return FaultOutcome(fmt.Errorf("write file: %w", err))
	}
	return SuccessOutcome(fmt.Sprintf("wrote %d bytes to %s", len(a.Content), a.Path))
}

// EditFileTool replaces an exact string in a file.
type EditFileTool struct{}

// NewEditFileTool creates a new edit file tool.
func NewEditFileTool() *EditFileTool {
	return &EditFileTool{}
}

// Metadata returns the tool metadata.
func (t *EditFileTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        "edit_file",
		Description: "Replace an exact text snippet in a file in the working directory",
		Parameters: []ToolParameter{
			{Name: "path", ParamType: "string", Description: "Path to the file, relative to the working directory", Required: true},
			{Name: "old_text", ParamType: "string", Description: "Exact text to replace; must occur exactly once", Required: true},
			{Name: "new_text", ParamType: "string", Description: "Replacement text", Required: true},
		},
		Capabilities: []Capability{CapWriteFiles},
	}
}

type editFileArgs struct {
	Path    string `json:"path"`
	OldText string `json:"old_text"`
	NewText string `json:"new_text"`
}

// RequiresPermission describes the pending edit for confirmation.
func (t *EditFileTool) RequiresPermission(args json.RawMessage) (string, bool) {
	var a editFileArgs
	_ = json.Unmarshal(args, &a)
	return fmt.Sprintf("Edit %s (replace %d bytes with %d bytes)", a.Path, len(a.OldText), len(a.NewText)), true
}

// Execute applies the replacement. The old text must occur exactly once so
// an ambiguous edit never silently changes the wrong place.
func (t *EditFileTool) Execute(ctx context.Context, args json.RawMessage, ec *ExecutionContext) Outcome {
	var a editFileArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return ValidationOutcome(err)
	}
	if a.OldText == "" {
		return ValidationOutcomef("old_text cannot be empty")
	}

	path, err := resolveInRoot(ec.Root, a.Path)
	if err != nil {
		return ValidationOutcome(err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return FaultOutcome(fmt.Errorf("read file: %w", err))
	}

	text := string(content)
	switch count := strings.Count(text, a.OldText); count {
	case 0:
		return FaultOutcomef("old_text not found in %s", a.Path)
	case 1:
	default:
		return FaultOutcomef("old_text occurs %d times in %s, must be unique", count, a.Path)
	}

	updated := strings.Replace(text, a.OldText, a.NewText, 1)
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		return FaultOutcome(fmt.Errorf("write file: %w", err))
	}
	return SuccessOutcome(fmt.Sprintf("edited %s", a.Path))
}
