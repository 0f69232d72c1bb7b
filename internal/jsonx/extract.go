// Package jsonx recovers JSON objects from model output.
//
// Models sometimes wrap tool arguments or structured replies in markdown
// fences or surrounding prose. This package pulls the object back out.
package jsonx

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Extract finds and returns the JSON object inside a response string.
// It handles the common model output patterns:
// 1. Pure JSON - returned as is
// 2. JSON wrapped in markdown code fences (```json ... ```)
// 3. JSON embedded in prose - first '{' through last '}'
//
// Limitations:
// - Only handles JSON objects, not arrays
// - Uses simple brace matching, not full JSON parsing
func Extract(response string) (string, error) {
	response = stripCodeFences(response)

	var test interface{}
	if err := json.Unmarshal([]byte(response), &test); err == nil {
		return response, nil
	}

	start := strings.Index(response, "{")
	if start != -1 {
		end := strings.LastIndex(response, "}")
		if end > start {
			candidate := response[start : end+1]
			if err := json.Unmarshal([]byte(candidate), &test); err == nil {
				return candidate, nil
			}
		}
	}

	preview := response
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	return "", fmt.Errorf("no valid JSON object in response: %q", preview)
}

// ExtractInto extracts the JSON object and unmarshals it into result.
func ExtractInto(response string, result interface{}) error {
	jsonStr, err := Extract(response)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(jsonStr), result); err != nil {
		return fmt.Errorf("unmarshal extracted JSON: %w", err)
	}
	return nil
}

// stripCodeFences removes markdown code fence markers.
// Handles ```json\n...\n``` and ```\n...\n```.
func stripCodeFences(response string) string {
	trimmed := strings.TrimSpace(response)

	if strings.HasPrefix(trimmed, "```json") {
		trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "```json"))
	} else if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
	}
	if strings.HasSuffix(trimmed, "```") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, "```"))
	}
	return trimmed
}
