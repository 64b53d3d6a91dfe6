package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	errTruncated = errors.New("response truncated at output limit")
	errEmpty     = errors.New("response is empty")
)

// stripFences removes a surrounding ``` or ```json fence.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.Contains(s[:nl], "{") {
		s = s[nl+1:]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// decodeDocument parses model output into an untyped JSON object.
func decodeDocument(text string) (map[string]any, error) {
	text = stripFences(text)
	if text == "" {
		return nil, errEmpty
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if doc == nil {
		return nil, errors.New("invalid JSON: not an object")
	}
	return doc, nil
}

// decodeInto converts a validated document into a typed value.
func decodeInto(doc any, v any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// str reads a non-blank string field.
func str(doc map[string]any, key string) string {
	s, _ := doc[key].(string)
	return strings.TrimSpace(s)
}

// object reads a nested object field.
func object(doc map[string]any, key string) map[string]any {
	m, _ := doc[key].(map[string]any)
	return m
}

// array reads an array field.
func array(doc map[string]any, key string) []any {
	a, _ := doc[key].([]any)
	return a
}
