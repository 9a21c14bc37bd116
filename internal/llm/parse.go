package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/JakubGal/invoice-eval/internal/invoice"
)

var (
	fenceRe         = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	braceRe         = regexp.MustCompile(`(?s)\{.*\}`)
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// ParseDocument extracts an invoice document from a raw completion.
// Models wrap JSON in code fences, prose, trailing commas and {"data":}
// envelopes, so parsing is lenient before the schema check.
func ParseDocument(model, raw string) (invoice.Document, error) {
	payload, ok := extractJSON(raw)
	if !ok {
		return nil, malformed(model, "no JSON object in completion")
	}
	if data, found := payload["data"]; found {
		if inner, isMap := data.(map[string]any); isMap {
			payload = inner
		}
	}
	if err := invoice.ValidateResponse(payload); err != nil {
		return nil, malformed(model, "schema violation: "+err.Error())
	}
	return invoice.Document(payload), nil
}

func extractJSON(raw string) (map[string]any, bool) {
	candidates := []string{strings.TrimSpace(raw)}
	if m := fenceRe.FindStringSubmatch(raw); m != nil {
		candidates = append([]string{strings.TrimSpace(m[1])}, candidates...)
	}
	if m := braceRe.FindString(raw); m != "" {
		candidates = append(candidates, m)
	}

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if payload, ok := decodeObject(candidate); ok {
			return payload, true
		}
		cleaned := trailingCommaRe.ReplaceAllString(candidate, "$1")
		if cleaned != candidate {
			if payload, ok := decodeObject(cleaned); ok {
				return payload, true
			}
		}
	}
	return nil, false
}

func decodeObject(s string) (map[string]any, bool) {
	var payload map[string]any
	if err := json.Unmarshal([]byte(s), &payload); err != nil {
		return nil, false
	}
	return payload, true
}
