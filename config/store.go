// Package config provides persistent settings with environment overrides.
//
// Values live in a JSON file under the user config directory, addressed by
// dotted paths like "providers.openai.api_key". Environment variables win
// over the file, so credentials can stay out of it entirely.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Store reads and writes the settings file.
type Store struct {
	path   string
	values map[string]interface{}
}

// DefaultPath returns the settings file location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config directory: %w", err)
	}
	return filepath.Join(dir, "taskpilot", "config.json"), nil
}

// Load reads the settings file at path. A missing file yields an empty
// store; the file is created on first Set.
func Load(path string) (*Store, error) {
	s := &Store{path: path, values: make(map[string]interface{})}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return s, nil
}

// Get resolves a dotted key. The matching environment variable, if set,
// overrides the file value.
func (s *Store) Get(key string) (string, bool) {
	if v := os.Getenv(envKey(key)); v != "" {
		return v, true
	}
	return s.fileGet(key)
}

// GetDefault resolves a dotted key, falling back to def when unset.
func (s *Store) GetDefault(key, def string) string {
	if v, ok := s.Get(key); ok {
		return v
	}
	return def
}

// Set writes a dotted key to the file and saves it. Intermediate objects
// are created as needed; a scalar in the way is an error.
func (s *Store) Set(key, value string) error {
	parts := strings.Split(key, ".")
	node := s.values
	for _, part := range parts[:len(parts)-1] {
		child, ok := node[part]
		if !ok {
			next := make(map[string]interface{})
			node[part] = next
			node = next
			continue
		}
		next, ok := child.(map[string]interface{})
		if !ok {
			return fmt.Errorf("config key %q: %q is not an object", key, part)
		}
		node = next
	}
	node[parts[len(parts)-1]] = value
	return s.save()
}

// Unset removes a dotted key and saves the file. Unsetting a missing key
// is a no-op.
func (s *Store) Unset(key string) error {
	parts := strings.Split(key, ".")
	node := s.values
	for _, part := range parts[:len(parts)-1] {
		next, ok := node[part].(map[string]interface{})
		if !ok {
			return nil
		}
		node = next
	}
	if _, ok := node[parts[len(parts)-1]]; !ok {
		return nil
	}
	delete(node, parts[len(parts)-1])
	return s.save()
}

// Keys returns every dotted key present in the file, sorted.
func (s *Store) Keys() []string {
	var keys []string
	var walk func(prefix string, node map[string]interface{})
	walk = func(prefix string, node map[string]interface{}) {
		for k, v := range node {
			full := k
			if prefix != "" {
				full = prefix + "." + k
			}
			if child, ok := v.(map[string]interface{}); ok {
				walk(full, child)
				continue
			}
			keys = append(keys, full)
		}
	}
	walk("", s.values)
	sort.Strings(keys)
	return keys
}

func (s *Store) fileGet(key string) (string, bool) {
	parts := strings.Split(key, ".")
	node := s.values
	for _, part := range parts[:len(parts)-1] {
		next, ok := node[part].(map[string]interface{})
		if !ok {
			return "", false
		}
		node = next
	}
	v, ok := node[parts[len(parts)-1]]
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

func (s *Store) save() error {
	if dir := filepath.Dir(s.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	// 0600: the file may hold API keys
	if err := os.WriteFile(s.path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// envKey maps a dotted config key to its environment override.
// Provider credentials use the conventional names (OPENAI_API_KEY);
// everything else is prefixed with TASKPILOT_.
func envKey(key string) string {
	upper := func(k string) string {
		return strings.ToUpper(strings.ReplaceAll(k, ".", "_"))
	}
	if rest, ok := strings.CutPrefix(key, "providers."); ok {
		return upper(rest)
	}
	return "TASKPILOT_" + upper(key)
}
