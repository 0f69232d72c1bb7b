// Package cli implements the taskpilot commands.
//
// Information Hiding:
// - Adapter construction from stored configuration hidden
// - Output formatting hidden
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/richinex/taskpilot/config"
	"github.com/richinex/taskpilot/llm"
	"github.com/richinex/taskpilot/storage"
)

// Options holds the global CLI flags.
type Options struct {
	ConfigPath string
	Provider   string
	Model      string
	Verbose    bool
}

// App carries the resolved configuration shared by every command.
type App struct {
	Store    *config.Store
	Settings config.Settings
	Logger   *slog.Logger
}

// NewApp loads configuration and builds the shared command state.
func NewApp(opts Options) (*App, error) {
	path := opts.ConfigPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	store, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	settings, err := store.Resolve(opts.Provider, opts.Model)
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return &App{Store: store, Settings: settings, Logger: logger}, nil
}

// Registry builds a provider registry over every known backend, each with
// its configured or default model. A provider switched off with
// providers.<name>.enabled=false is registered but disabled.
func (a *App) Registry() *llm.Registry {
	names := []string{"openai", "anthropic", "deepseek", "gemini", "ollama"}
	adapters := make([]llm.Adapter, 0, len(names))
	for _, name := range names {
		adapters = append(adapters, a.newAdapter(name, a.modelFor(name)))
	}
	registry := llm.NewRegistry(adapters...)
	for _, name := range names {
		if !a.providerEnabled(name) {
			registry.SetEnabled(name, false)
		}
	}
	return registry
}

// providerEnabled reads the administrative switch for a provider. Absent or
// unparseable values count as enabled.
func (a *App) providerEnabled(name string) bool {
	enabled, err := strconv.ParseBool(a.Store.GetDefault("providers."+name+".enabled", "true"))
	if err != nil {
		return true
	}
	return enabled
}

// Adapter builds the adapter for the selected provider and model.
func (a *App) Adapter() (llm.Adapter, error) {
	switch a.Settings.Provider {
	case "openai", "anthropic", "deepseek", "gemini", "ollama":
		return a.newAdapter(a.Settings.Provider, a.Settings.Model), nil
	default:
		return nil, fmt.Errorf("%w: %q", llm.ErrUnknownProvider, a.Settings.Provider)
	}
}

// OpenStorage opens the task and session database.
func (a *App) OpenStorage() (*storage.Store, error) {
	return storage.Open(a.Settings.DatabasePath)
}

func (a *App) newAdapter(provider, model string) llm.Adapter {
	key := a.Store.GetDefault("providers."+provider+".api_key", "")
	base := a.Store.GetDefault("providers."+provider+".base_url", "")

	switch provider {
	case "anthropic":
		return llm.NewAnthropic(key, base, model)
	case "deepseek":
		return llm.NewDeepSeek(key, base, model)
	case "gemini":
		return llm.NewGemini(key, model)
	case "ollama":
		return llm.NewOllama(base, model)
	default:
		return llm.NewOpenAI(key, base, model)
	}
}

func (a *App) modelFor(provider string) string {
	if provider == a.Settings.Provider {
		return a.Settings.Model
	}
	settings, err := a.Store.Resolve(provider, "")
	if err != nil {
		return ""
	}
	return settings.Model
}
