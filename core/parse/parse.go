package parse

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrEmpty is returned by Value when the input is blank.
var ErrEmpty = errors.New("parse: empty content")

// Arguments decodes tool-call arguments produced by a model into T.
//
// Models occasionally emit arguments that are not strict JSON: wrapped in a
// markdown fence, with single quotes or trailing commas, or with each value
// wrapped as {"type": ..., "value": ...}. Arguments tries, in order, plain
// decoding, decoding after jsonrepair, and decoding after unwrapping such
// envelopes. Blank input decodes as an empty object.
func Arguments[T any](raw string) (T, error) {
	var out T

	content := stripFence(strings.TrimSpace(raw))
	if content == "" {
		content = "{}"
	}

	firstErr := json.Unmarshal([]byte(content), &out)
	if firstErr == nil {
		return out, nil
	}

	repaired, err := jsonrepair.JSONRepair(content)
	if err != nil {
		return out, fmt.Errorf("decode arguments as %T: %w (repair failed: %v)", out, firstErr, err)
	}
	out = *new(T)
	if err := json.Unmarshal([]byte(repaired), &out); err == nil {
		return out, nil
	}

	if unwrapped, ok := unwrapEnvelopes(repaired); ok {
		out = *new(T)
		if err := json.Unmarshal([]byte(unwrapped), &out); err == nil {
			return out, nil
		}
	}
	return out, fmt.Errorf("decode arguments as %T: %w", out, firstErr)
}

// Value is Arguments for callers that must reject blank input.
func Value[T any](raw string) (T, error) {
	if strings.TrimSpace(raw) == "" {
		var zero T
		return zero, ErrEmpty
	}
	return Arguments[T](raw)
}

// stripFence removes a surrounding ``` or ```json fence.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	body := strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.ContainsAny(body[:nl], "{[\"") {
		body = body[nl+1:]
	}
	return strings.TrimSpace(body)
}

// unwrapEnvelopes rewrites {"k": {"type": "string", "value": "v"}} to
// {"k": "v"} at every level. It reports false when nothing changed.
func unwrapEnvelopes(s string) (string, bool) {
	var root any
	if err := json.Unmarshal([]byte(s), &root); err != nil {
		return "", false
	}
	changed := false
	root = unwrap(root, &changed)
	if !changed {
		return "", false
	}
	raw, err := json.Marshal(root)
	if err != nil {
		return "", false
	}
	return string(raw), true
}

func unwrap(v any, changed *bool) any {
	switch t := v.(type) {
	case map[string]any:
		if inner, ok := t["value"]; ok && len(t) == 2 {
			if _, typed := t["type"]; typed {
				*changed = true
				return unwrap(inner, changed)
			}
		}
		for k, child := range t {
			t[k] = unwrap(child, changed)
		}
		return t
	case []any:
		for i, child := range t {
			t[i] = unwrap(child, changed)
		}
		return t
	default:
		return v
	}
}
