package invoice

import (
	"strconv"
	"strings"
)

// Document is a nested invoice payload, as decoded from JSON.
type Document = map[string]any

// tokenizePath splits dotted paths and bracket indices into tokens,
// e.g. "items[0].description" -> ["items", "0", "description"].
func tokenizePath(path string) []string {
	var tokens []string
	for _, segment := range strings.Split(path, ".") {
		buf := segment
		for strings.Contains(buf, "[") {
			before, rest, _ := strings.Cut(buf, "[")
			if before != "" {
				tokens = append(tokens, before)
			}
			idx, remainder, _ := strings.Cut(rest, "]")
			if idx != "" {
				tokens = append(tokens, idx)
			}
			buf = remainder
		}
		if buf != "" {
			tokens = append(tokens, buf)
		}
	}
	return tokens
}

// Get navigates a dotted path through nested maps and slices. It returns
// "" for missing paths, mirroring how absent invoice fields are treated.
func Get(data any, path string) any {
	if path == "" {
		return ""
	}
	node := data
	for _, tok := range tokenizePath(path) {
		switch n := node.(type) {
		case map[string]any:
			val, ok := n[tok]
			if !ok {
				return ""
			}
			node = val
		case []any:
			idx, err := strconv.Atoi(tok)
			if err != nil || idx < 0 || idx >= len(n) {
				return ""
			}
			node = n[idx]
		default:
			return ""
		}
	}
	return node
}

// GetString is Get with the value coerced to a string.
func GetString(data any, path string) string {
	return Stringify(Get(data, path))
}

// Stringify renders a document value the way JSON would, without
// trailing zeros on round floats.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Set writes a value at a dotted path, creating intermediate maps and
// extending slices as needed. Conflicting shapes leave data untouched.
func Set(data Document, path string, value any) {
	tokens := tokenizePath(path)
	if len(tokens) == 0 {
		return
	}

	var node any = data
	for i, tok := range tokens {
		last := i == len(tokens)-1
		idx, err := strconv.Atoi(tok)
		isIndex := err == nil

		if last {
			if isIndex {
				list, ok := node.([]any)
				if !ok {
					return
				}
				for len(list) <= idx {
					list = append(list, Document{})
				}
				list[idx] = value
			} else if m, ok := node.(Document); ok {
				m[tok] = value
			}
			return
		}

		nextIsIndex := false
		if _, err := strconv.Atoi(tokens[i+1]); err == nil {
			nextIsIndex = true
		}

		if isIndex {
			// Intermediate list hops are only supported when the parent
			// already holds a list; Set callers write map-rooted paths.
			list, ok := node.([]any)
			if !ok || idx >= len(list) {
				return
			}
			node = list[idx]
			continue
		}

		m, ok := node.(Document)
		if !ok {
			return
		}
		child, exists := m[tok]
		switch child.(type) {
		case Document, []any:
		default:
			exists = false
		}
		if !exists {
			if nextIsIndex {
				m[tok] = []any{}
			} else {
				m[tok] = Document{}
			}
		}
		node = m[tok]
	}
}

// NewDocument returns an empty invoice skeleton with all sections present.
func NewDocument() Document {
	return Document{
		"invoice": Document{},
		"seller":  Document{},
		"client":  Document{},
		"items":   []any{},
		"totals":  Document{},
		"payment": Document{},
		"notes":   "",
	}
}

// Items returns the item records of a document, tolerating both
// []any and already-typed slices of maps.
func Items(data Document) []Document {
	raw, ok := data["items"]
	if !ok {
		return nil
	}
	switch list := raw.(type) {
	case []Document:
		return list
	case []any:
		items := make([]Document, 0, len(list))
		for _, entry := range list {
			if m, ok := entry.(map[string]any); ok {
				items = append(items, m)
			}
		}
		return items
	}
	return nil
}
