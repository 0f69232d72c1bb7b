package jsonx

import (
	"strings"
	"testing"
)

type payload struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestExtractPureJSON(t *testing.T) {
	var result payload
	if err := ExtractInto(`{"name": "test", "value": 42}`, &result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Name != "test" || result.Value != 42 {
		t.Errorf("got %+v", result)
	}
}

func TestExtractEmbeddedInProse(t *testing.T) {
	var result payload
	response := `Sure, here are the arguments: {"name": "test", "value": 42} Done!`
	if err := ExtractInto(response, &result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Name != "test" || result.Value != 42 {
		t.Errorf("got %+v", result)
	}
}

func TestExtractCodeFences(t *testing.T) {
	cases := []string{
		"```json\n{\"name\": \"test\", \"value\": 42}\n```",
		"```\n{\"name\": \"test\", \"value\": 42}\n```",
	}
	for _, response := range cases {
		var result payload
		if err := ExtractInto(response, &result); err != nil {
			t.Fatalf("response %q: %v", response, err)
		}
		if result.Name != "test" {
			t.Errorf("response %q: got %+v", response, result)
		}
	}
}

func TestExtractNoJSON(t *testing.T) {
	_, err := Extract("there is no object here")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "no valid JSON") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestExtractLongPreviewTruncated(t *testing.T) {
	_, err := Extract(strings.Repeat("x", 500))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "...") {
		t.Errorf("expected truncated preview, got: %v", err)
	}
}
