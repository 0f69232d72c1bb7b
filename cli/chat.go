package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/richinex/taskpilot/agent"
	"github.com/richinex/taskpilot/llm"
	"github.com/richinex/taskpilot/tools"
)

const systemPrompt = `You are taskpilot, an assistant that helps the user manage a task list and
work with files in the current directory. Use the provided tools to read and
change things instead of guessing. Be concise.`

// Chat runs the interactive chat session.
func Chat(ctx context.Context, app *App, mode, sessionID string) error {
	toolMode := tools.Mode(mode)
	if toolMode != tools.ModeAsk && toolMode != tools.ModeAgent {
		return fmt.Errorf("unknown mode %q (want ask or agent)", mode)
	}

	adapter, err := app.Adapter()
	if err != nil {
		return err
	}
	if !adapter.IsConfigured() {
		for _, field := range adapter.RequiredConfig() {
			if field.Required {
				return fmt.Errorf("provider %s is not configured: set %s with `taskpilot config set`", adapter.Name(), field.Key)
			}
		}
	}

	store, err := app.OpenStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}

	stdin := bufio.NewReader(os.Stdin)
	ec := &tools.ExecutionContext{
		Mode:    toolMode,
		Root:    root,
		Confirm: confirmPrompt(stdin),
		Tasks:   store.Tasks(),
		Logger:  app.Logger,
	}

	registry := tools.DefaultRegistry()
	executor := tools.NewExecutor(registry, app.Logger)
	orchestrator := agent.New(adapter, registry, executor, app.Settings.MaxToolRounds, app.Logger)

	sessions := store.Sessions()
	messages := []llm.Message{llm.SystemMessage(systemPrompt)}
	if sessionID != "" {
		saved, err := sessions.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		if len(saved) > 0 {
			messages = saved
			fmt.Printf("Resumed session %s (%d messages)\n", sessionID, len(saved))
		}
	} else {
		sessionID = uuid.NewString()
	}

	fmt.Printf("taskpilot chat | provider=%s model=%s mode=%s\n", adapter.Name(), app.Settings.Model, toolMode)
	fmt.Println(`Type your message, or "exit" to quit.`)

	for {
		fmt.Print("> ")
		line, err := stdin.ReadString('\n')
		if err != nil {
			fmt.Println()
			break
		}
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		messages = append(messages, llm.UserMessage(input))

		req := llm.CompletionRequest{
			Temperature: app.Settings.Temperature,
			MaxTokens:   app.Settings.MaxTokens,
			Stream:      true,
			OnChunk:     func(chunk string) { fmt.Print(chunk) },
		}

		result, err := orchestrator.Run(ctx, messages, req, ec)
		if err != nil {
			fmt.Fprintf(os.Stderr, "\nerror: %v\n", err)
			// drop the failed turn so the transcript stays consistent
			messages = messages[:len(messages)-1]
			continue
		}
		messages = result.Messages
		fmt.Println()

		app.Logger.Debug("turn complete",
			"prompt_tokens", result.Usage.PromptTokens,
			"completion_tokens", result.Usage.CompletionTokens,
		)

		if err := sessions.Save(ctx, sessionID, messages); err != nil {
			app.Logger.Warn("save session", "error", err)
		}
	}

	return nil
}

// Sessions prints the saved session ids, most recently updated first.
// Any of them can be resumed with `chat --session <id>`.
func Sessions(ctx context.Context, app *App) error {
	store, err := app.OpenStorage()
	if err != nil {
		return err
	}
	defer store.Close()

	ids, err := store.Sessions().List(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println("no saved sessions")
		return nil
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

// confirmPrompt builds the permission callback. It shares stdin with the
// chat loop, so the pending read order stays sane.
func confirmPrompt(stdin *bufio.Reader) func(string) bool {
	return func(action string) bool {
		fmt.Printf("\n%s? [y/N] ", action)
		line, err := stdin.ReadString('\n')
		if err != nil {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}
