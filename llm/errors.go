package llm

import (
	"errors"
	"fmt"
)

// ConfigError indicates a missing credential or unset provider/model
// selection. Never retried; the message tells the user what to configure.
type ConfigError struct {
	Provider string
	Key      string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s is not configured: set %s (taskpilot config set %s <value>)", e.Provider, e.Key, e.Key)
}

// NetworkError indicates the request never produced an HTTP response:
// connection refused, DNS failure, timeout.
type NetworkError struct {
	Provider string
	Hint     string
	Err      error
}

func (e *NetworkError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: network error: %v (%s)", e.Provider, e.Err, e.Hint)
	}
	return fmt.Sprintf("%s: network error: %v", e.Provider, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError indicates a non-2xx HTTP response from the backend. Message
// holds the adapter's parseError translation of the raw body.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: API error (HTTP %d): %s", e.Provider, e.StatusCode, e.Message)
}

// ErrUnknownProvider is returned by the registry for names never registered.
var ErrUnknownProvider = errors.New("unknown provider")
