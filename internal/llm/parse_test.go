package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocumentPlainJSON(t *testing.T) {
	raw := `{"invoice": {"number": "INV-1", "date": "2024-01-05"}}`

	doc, err := ParseDocument("gpt-4o-mini", raw)
	require.NoError(t, err)
	assert.Equal(t, "INV-1", doc["invoice"].(map[string]any)["number"])
}

func TestParseDocumentCodeFence(t *testing.T) {
	raw := "Here is the extraction:\n```json\n{\"invoice\": {\"number\": \"INV-2\"}}\n```\nDone."

	doc, err := ParseDocument("gpt-4o-mini", raw)
	require.NoError(t, err)
	assert.Equal(t, "INV-2", doc["invoice"].(map[string]any)["number"])
}

func TestParseDocumentSurroundingProse(t *testing.T) {
	raw := `The extracted fields are {"totals": {"due": "100.00"}} as requested.`

	doc, err := ParseDocument("gpt-4o-mini", raw)
	require.NoError(t, err)
	assert.Equal(t, "100.00", doc["totals"].(map[string]any)["due"])
}

func TestParseDocumentTrailingComma(t *testing.T) {
	raw := `{"invoice": {"number": "INV-3",}, "items": [{"description": "widget",},]}`

	doc, err := ParseDocument("gpt-4o-mini", raw)
	require.NoError(t, err)
	assert.Equal(t, "INV-3", doc["invoice"].(map[string]any)["number"])
}

func TestParseDocumentDataEnvelope(t *testing.T) {
	raw := `{"data": {"invoice": {"number": "INV-4"}}}`

	doc, err := ParseDocument("gpt-4o-mini", raw)
	require.NoError(t, err)
	assert.Equal(t, "INV-4", doc["invoice"].(map[string]any)["number"])
}

func TestParseDocumentNoJSON(t *testing.T) {
	_, err := ParseDocument("gpt-4o-mini", "I could not read the invoice, sorry.")

	f, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, FailureMalformed, f.Kind)
}

func TestParseDocumentSchemaViolation(t *testing.T) {
	_, err := ParseDocument("gpt-4o-mini", `{"items": "not a list"}`)

	f, ok := AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, FailureMalformed, f.Kind)
	assert.Contains(t, f.Message, "schema violation")
}
