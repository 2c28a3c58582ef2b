package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Document is a record held by the store. Nested sections are maps keyed by
// field name; numbers decoded from storage are json.Number values.
type Document map[string]any

// Lookup resolves a dotted path such as "checking.balance".
func (d Document) Lookup(path string) (any, bool) {
	if d == nil || path == "" {
		return nil, false
	}
	var current any = map[string]any(d)
	for _, key := range strings.Split(path, ".") {
		section, ok := asMap(current)
		if !ok {
			return nil, false
		}
		current, ok = section[key]
		if !ok {
			return nil, false
		}
	}
	if current == nil {
		return nil, false
	}
	return current, true
}

// Has reports whether the document contains a top-level key.
func (d Document) Has(key string) bool {
	if d == nil {
		return false
	}
	_, ok := d[key]
	return ok
}

// String returns the value at path rendered as a string, or "" when absent.
func (d Document) String(path string) string {
	v, ok := d.Lookup(path)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// Set writes value at a dotted path, creating intermediate sections.
func (d Document) Set(path string, value any) {
	keys := strings.Split(path, ".")
	section := map[string]any(d)
	for _, key := range keys[:len(keys)-1] {
		next, ok := asMap(section[key])
		if !ok {
			next = map[string]any{}
			section[key] = next
		}
		section = next
	}
	section[keys[len(keys)-1]] = value
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return Document(cloneMap(d))
}

// Encode serialises the document as JSON.
func (d Document) Encode() ([]byte, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(d))
}

// Decode parses a JSON object, keeping numbers as json.Number.
func Decode(data []byte) (Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Document{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return Document(raw), nil
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case Document:
		return map[string]any(t), true
	default:
		return nil, false
	}
}

func cloneMap(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case Document:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		return t
	}
}
