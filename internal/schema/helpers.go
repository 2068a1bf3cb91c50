// file: internal/schema/helpers.go
package schema

import (
	"bytes"
	"encoding/json"
	"sort"
)

const maxPreviewLen = 100

// calculatePreview returns a short printable prefix of data for error context.
func calculatePreview(data []byte) string {
	suffix := ""
	if len(data) > maxPreviewLen {
		data = data[:maxPreviewLen]
		suffix = "..."
	}
	printable := bytes.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return '.'
		}
		return r
	}, data)
	return string(printable) + suffix
}

// asObject coerces a schema-ish value into a JSON object.
// Raw JSON is decoded; anything that is not an object yields ok=false.
func asObject(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case map[string]any:
		return t, true
	case json.RawMessage:
		return decodeObject(t)
	case []byte:
		return decodeObject(t)
	case string:
		return decodeObject([]byte(t))
	default:
		// Typed structs (e.g. SDK schema types) are normalized through JSON.
		raw, err := json.Marshal(t)
		if err != nil {
			return nil, false
		}
		return decodeObject(raw)
	}
}

func decodeObject(raw []byte) (map[string]any, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, false
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return nil, false
	}
	return out, true
}

// sortedKeys returns the keys of m in lexical order.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// cloneDocument deep-copies a JSON document through encoding/json.
func cloneDocument(doc map[string]any) map[string]any {
	raw, err := json.Marshal(doc)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{"type": "object"}
	}
	return out
}
