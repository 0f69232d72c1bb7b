package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// defaultHTTPTimeout bounds every outbound call so a stalled backend cannot
// block an invocation indefinitely. Streaming responses can legitimately
// take a while, hence the generous ceiling.
const defaultHTTPTimeout = 120 * time.Second

// newHTTPClient returns the client adapters use for outbound calls.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultHTTPTimeout}
}

// postJSON marshals payload and issues a POST with the given headers.
// Transport-level failures (connection refused, DNS, timeout) are wrapped
// in a NetworkError; non-2xx responses are returned to the caller for
// provider-specific translation.
func postJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, payload interface{}) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &NetworkError{Provider: provider, Err: err}
	}
	return resp, nil
}

// getJSON issues a GET with the given headers and decodes the 2xx response
// body into out.
func getJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return &NetworkError{Provider: provider, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Provider: provider, StatusCode: resp.StatusCode, Message: string(raw)}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// readAPIError drains a non-2xx response body and builds the typed error,
// running the raw message through the adapter's translation.
func readAPIError(resp *http.Response, provider string, parse func(string) string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
	return &APIError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
		Message:    parse(string(raw)),
	}
}
