package extract

import (
	"context"
	"strings"

	"github.com/JakubGal/invoice-eval/internal/invoice"
	"github.com/JakubGal/invoice-eval/internal/llm"
)

// llmMethod covers the three model-backed extractors. Text variants
// send the assembled lines with a schema prompt; the hybrid variant
// additionally backfills from the pattern extractor; the vision variant
// sends page renders instead of text.
// Completer is the slice of the LLM router the extract methods need.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
}

type llmMethod struct {
	kind      Kind
	client    Completer
	maxTokens int
	clipChars int
}

func (m *llmMethod) Kind() Kind { return m.kind }

func (m *llmMethod) Extract(ctx context.Context, in Input) (invoice.Document, error) {
	req := llm.Request{
		Model:     in.Model,
		System:    invoice.SystemPrompt,
		MaxTokens: m.maxTokens,
		JSONMode:  true,
	}

	if m.kind == KindLLMVision {
		req.Prompt = invoice.ExtractionPrompt()
		req.Images = in.Images
	} else {
		text := strings.Join(in.Lines, "\n")
		// Clip on rune boundaries so multi-byte invoice text stays valid UTF-8.
		if runes := []rune(text); len(runes) > m.clipChars {
			text = string(runes[:m.clipChars])
		}
		req.Prompt = invoice.ExtractionPrompt() + "\n\nTEXT:\n" + text
	}

	raw, err := m.client.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	doc, err := llm.ParseDocument(in.Model, raw)
	if err != nil {
		return nil, err
	}

	if m.kind == KindLLMTextPatterns {
		doc = MergeMissing(doc, patternExtract(in.Lines))
	}
	return doc, nil
}
