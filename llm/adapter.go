package llm

import "context"

// Adapter is the contract every backend implements. Request/response field
// naming, auth headers, and streaming envelopes are entirely internal to an
// adapter and never leak into the normalized types.
//
// Adapters never retry; retry policy, if any, belongs to the caller.
type Adapter interface {
	// Name returns the provider name (for registry lookup and logging).
	Name() string

	// IsConfigured reports whether the mandatory credential, if any, is
	// present. Backends that require no credential are always configured.
	IsConfigured() bool

	// RequiredConfig declares the configuration surface for validation
	// and help text.
	RequiredConfig() []ConfigField

	// TestConnection issues a minimal request and reports the outcome
	// without returning an error.
	TestConnection(ctx context.Context) ConnectionStatus

	// ListModels queries the backend for its models, falling back to a
	// static list where the backend offers no listing endpoint. On
	// network failure it returns a single sentinel connection-error
	// model rather than an error, so callers can render a status line
	// without special-casing failures.
	ListModels(ctx context.Context) []Model

	// Complete performs one completion: a single HTTP call parsed in one
	// shot, or, when req.Stream is set, a single HTTP call whose body is
	// decoded incrementally with each delta delivered to req.OnChunk.
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)

	// ParseError maps a raw backend failure message to actionable text.
	// Unrecognized messages pass through unchanged.
	ParseError(raw string) string
}
