package hooks

import (
	"encoding/json"
	"fmt"
)

// Truncation limits for persisted input/output values.
const (
	MaxInputLen  = 1000
	MaxOutputLen = 2000

	ellipsis = "…"
)

// FilePath extracts the file path a tool hook refers to, if any.
// Lookup order: direct file_path/path fields in the data bag, then the same
// fields nested inside tool_input, which may itself be a string-serialized
// JSON object. The first match wins.
func FilePath(data map[string]any) string {
	if data == nil {
		return ""
	}
	for _, key := range []string{"file_path", "path"} {
		if s, ok := data[key].(string); ok && s != "" {
			return s
		}
	}
	input := ToolInput(data)
	if input == nil {
		return ""
	}
	for _, key := range []string{"file_path", "path"} {
		if s, ok := input[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// ToolInput returns the tool_input object from the data bag, decoding it
// when the sender serialized it as a JSON string. A malformed serialization
// yields nil: the enrichment is skipped, the event is still processed.
func ToolInput(data map[string]any) map[string]any {
	raw, ok := data["tool_input"]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case map[string]any:
		return v
	case string:
		var decoded map[string]any
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			return nil
		}
		return decoded
	}
	return nil
}

// Truncate renders a value as a string clipped to max runes, appending an
// ellipsis marker when clipped. Non-string values are JSON-serialized first.
func Truncate(v any, max int) string {
	if v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		b, err := json.Marshal(v)
		if err != nil {
			s = fmt.Sprintf("%v", v)
		} else {
			s = string(b)
		}
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + ellipsis
}
