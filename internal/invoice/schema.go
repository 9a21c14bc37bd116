package invoice

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// SystemPrompt instructs extraction models to answer with bare JSON.
const SystemPrompt = "You extract structured invoice data. Reply ONLY with a JSON object (no prose, no code fences). " +
	"Use ISO dates (YYYY-MM-DD) when possible. Use numbers for amounts and quantities."

// SchemaHint is the minified JSON skeleton embedded in extraction prompts.
const SchemaHint = `{"invoice":{"number":"","date":"","due_date":"","reference":""},` +
	`"seller":{"name":"","contact":"","email":"","address":""},` +
	`"client":{"name":"","contact":"","email":"","address":""},` +
	`"items":[{"description":"","qty":"","unit_price":"","line_total":""}],` +
	`"totals":{"subtotal":"","tax":"","due":""},` +
	`"payment":{"bank":"","iban":"","reference":""},` +
	`"notes":""}`

// ExtractionPrompt is the user-facing instruction block sent before the
// document text or images.
func ExtractionPrompt() string {
	var sb strings.Builder
	sb.WriteString("Extract the invoice data into JSON using this schema:\n")
	sb.WriteString(SchemaHint)
	sb.WriteString("\nReturn ONLY valid JSON with the same keys. Use empty strings when a field is missing. ")
	sb.WriteString("Keep numbers as numbers, not formatted strings. Minify the JSON (single line, no extra whitespace).")
	return sb.String()
}

// responseSchema constrains the shape of model output: an object whose
// known sections are objects, with items as a list of records. Leaf values
// stay unconstrained since models mix strings and numbers freely.
const responseSchema = `{
	"type": "object",
	"properties": {
		"invoice": {"type": "object"},
		"seller":  {"type": "object"},
		"client":  {"type": "object"},
		"items":   {"type": "array", "items": {"type": "object"}},
		"totals":  {"type": "object"},
		"payment": {"type": "object"}
	}
}`

var compiledResponseSchema = func() *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(responseSchema))
	if err != nil {
		panic(fmt.Sprintf("invoice: parsing response schema: %v", err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("invoice-response.json", doc); err != nil {
		panic(fmt.Sprintf("invoice: adding response schema: %v", err))
	}
	schema, err := compiler.Compile("invoice-response.json")
	if err != nil {
		panic(fmt.Sprintf("invoice: compiling response schema: %v", err))
	}
	return schema
}()

// ValidateResponse checks a parsed model payload against the invoice
// response schema.
func ValidateResponse(payload map[string]any) error {
	return compiledResponseSchema.Validate(map[string]any(payload))
}
