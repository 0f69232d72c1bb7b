package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Settings holds the resolved runtime configuration for one invocation.
type Settings struct {
	Provider      string
	Model         string
	Temperature   float64
	MaxTokens     int
	MaxToolRounds int
	DatabasePath  string
}

// defaultModels picks a sensible model per provider when none is configured.
var defaultModels = map[string]string{
	"openai":    "gpt-4o",
	"anthropic": "claude-sonnet-4-20250514",
	"deepseek":  "deepseek-chat",
	"gemini":    "gemini-2.5-flash",
	"ollama":    "llama3.2",
}

// providerAliases map friendly names to canonical ones.
var providerAliases = map[string]string{
	"claude": "anthropic",
	"google": "gemini",
	"gpt":    "openai",
}

// NormalizeProvider converts provider aliases to canonical names.
func NormalizeProvider(provider string) string {
	provider = strings.ToLower(provider)
	if canonical, ok := providerAliases[provider]; ok {
		return canonical
	}
	return provider
}

// Resolve builds the runtime settings from the store, with flag values
// (when non-empty) taking precedence over stored defaults.
func (s *Store) Resolve(providerFlag, modelFlag string) (Settings, error) {
	provider := providerFlag
	if provider == "" {
		provider = s.GetDefault("defaults.provider", "openai")
	}
	provider = NormalizeProvider(provider)

	model := modelFlag
	if model == "" {
		model = s.GetDefault("defaults.model."+provider, defaultModels[provider])
	}

	temperature, err := parseFloat(s.GetDefault("defaults.temperature", "0.7"), "defaults.temperature")
	if err != nil {
		return Settings{}, err
	}
	maxTokens, err := parseInt(s.GetDefault("defaults.max_tokens", "4096"), "defaults.max_tokens")
	if err != nil {
		return Settings{}, err
	}
	maxRounds, err := parseInt(s.GetDefault("defaults.max_tool_rounds", "1"), "defaults.max_tool_rounds")
	if err != nil {
		return Settings{}, err
	}

	dbPath, ok := s.Get("database.path")
	if !ok {
		dbPath, err = defaultDatabasePath()
		if err != nil {
			return Settings{}, err
		}
	}

	return Settings{
		Provider:      provider,
		Model:         model,
		Temperature:   temperature,
		MaxTokens:     maxTokens,
		MaxToolRounds: maxRounds,
		DatabasePath:  dbPath,
	}, nil
}

func defaultDatabasePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config directory: %w", err)
	}
	return filepath.Join(dir, "taskpilot", "taskpilot.db"), nil
}

func parseFloat(val, key string) (float64, error) {
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return f, nil
}

func parseInt(val, key string) (int, error) {
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}
