package extract

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakubGal/invoice-eval/internal/invoice"
	"github.com/JakubGal/invoice-eval/internal/llm"
)

type stubCompleter struct {
	response string
	err      error
	lastReq  llm.Request
}

func (s *stubCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	s.lastReq = req
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestLLMTextExtract(t *testing.T) {
	stub := &stubCompleter{response: `{"invoice": {"number": "INV-9"}}`}
	method := &llmMethod{kind: KindLLMText, client: stub, maxTokens: 2000, clipChars: 12000}

	doc, err := method.Extract(context.Background(), Input{
		Model: "gpt-4o",
		Lines: []string{"Invoice number: INV-9"},
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-9", invoice.GetString(doc, "invoice.number"))
	assert.Contains(t, stub.lastReq.Prompt, "TEXT:")
	assert.Contains(t, stub.lastReq.Prompt, "Invoice number: INV-9")
	assert.Equal(t, "gpt-4o", stub.lastReq.Model)
	assert.True(t, stub.lastReq.JSONMode)
}

func TestLLMTextExtractClipsLongText(t *testing.T) {
	stub := &stubCompleter{response: `{}`}
	method := &llmMethod{kind: KindLLMText, client: stub, maxTokens: 2000, clipChars: 100}

	_, err := method.Extract(context.Background(), Input{
		Model: "gpt-4o",
		Lines: []string{strings.Repeat("x", 500)},
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(stub.lastReq.Prompt), len(invoice.ExtractionPrompt())+len("\n\nTEXT:\n")+100)
}

func TestLLMTextExtractClipsOnRuneBoundary(t *testing.T) {
	stub := &stubCompleter{response: `{}`}
	method := &llmMethod{kind: KindLLMText, client: stub, maxTokens: 2000, clipChars: 100}

	_, err := method.Extract(context.Background(), Input{
		Model: "gpt-4o",
		Lines: []string{strings.Repeat("发票", 500)},
	})
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(stub.lastReq.Prompt))
	_, text, ok := strings.Cut(stub.lastReq.Prompt, "\n\nTEXT:\n")
	require.True(t, ok)
	assert.Equal(t, 100, utf8.RuneCountInString(text))
}

func TestLLMTextPatternsBackfill(t *testing.T) {
	stub := &stubCompleter{response: `{"invoice": {"number": "INV-9"}}`}
	method := &llmMethod{kind: KindLLMTextPatterns, client: stub, maxTokens: 2000, clipChars: 12000}

	doc, err := method.Extract(context.Background(), Input{
		Model: "gpt-4o",
		Lines: []string{"Invoice number: INV-9", "IBAN: DE44500105175407324931"},
	})
	require.NoError(t, err)
	// Model output wins, gaps come from the pattern extractor.
	assert.Equal(t, "INV-9", invoice.GetString(doc, "invoice.number"))
	assert.Equal(t, "DE44500105175407324931", invoice.GetString(doc, "payment.iban"))
}

func TestLLMVisionSendsImages(t *testing.T) {
	stub := &stubCompleter{response: `{"invoice": {"number": "INV-9"}}`}
	method := &llmMethod{kind: KindLLMVision, client: stub, maxTokens: 2000, clipChars: 12000}

	img := []byte{0x89, 0x50, 0x4e, 0x47}
	_, err := method.Extract(context.Background(), Input{
		Model:  "gpt-4o",
		Images: [][]byte{img},
	})
	require.NoError(t, err)
	require.Len(t, stub.lastReq.Images, 1)
	assert.Equal(t, img, stub.lastReq.Images[0])
	assert.NotContains(t, stub.lastReq.Prompt, "TEXT:")
}

func TestLLMExtractPropagatesFailure(t *testing.T) {
	stub := &stubCompleter{err: &llm.Failure{Kind: llm.FailureRateLimited, Message: "slow down"}}
	method := &llmMethod{kind: KindLLMText, client: stub, maxTokens: 2000, clipChars: 12000}

	_, err := method.Extract(context.Background(), Input{Model: "gpt-4o", Lines: []string{"x"}})
	f, ok := llm.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, llm.FailureRateLimited, f.Kind)
}
