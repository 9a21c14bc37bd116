package textsource

import (
	"context"
	"fmt"

	"github.com/tsawler/tabula/reader"

	"github.com/JakubGal/invoice-eval/internal/models"
)

// PDFText reads the text layer embedded in the sample's PDF.
type PDFText struct{}

func (*PDFText) Kind() Kind { return KindPDFText }

// Probe always succeeds: PDF parsing has no external engine.
func (*PDFText) Probe() error { return nil }

func (p *PDFText) Tokens(ctx context.Context, sample *models.Sample) ([]models.TextToken, error) {
	r, err := reader.Open(sample.PDFPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", sample.PDFPath, err)
	}
	defer r.Close()

	pageCount, err := r.PageCount()
	if err != nil {
		return nil, fmt.Errorf("counting pages of %s: %w", sample.PDFPath, err)
	}

	var tokens []models.TextToken
	for pageIdx := 0; pageIdx < pageCount; pageIdx++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := r.GetPage(pageIdx)
		if err != nil {
			return nil, fmt.Errorf("loading page %d of %s: %w", pageIdx+1, sample.PDFPath, err)
		}
		fragments, err := r.ExtractTextFragments(page)
		if err != nil {
			return nil, fmt.Errorf("extracting page %d of %s: %w", pageIdx+1, sample.PDFPath, err)
		}

		// PDF space grows upward; flip Y so tokens read top to bottom.
		maxY := 0.0
		for _, frag := range fragments {
			if frag.Y > maxY {
				maxY = frag.Y
			}
		}
		for _, frag := range fragments {
			if frag.Text == "" {
				continue
			}
			tokens = append(tokens, models.TextToken{
				Text:   frag.Text,
				Page:   pageIdx + 1,
				X:      frag.X,
				Y:      maxY - frag.Y,
				Width:  frag.Width,
				Height: frag.Height,
				Source: string(KindPDFText),
			})
		}
	}

	if len(tokens) == 0 {
		return nil, fmt.Errorf("%s: %w", sample.PDFPath, ErrEmpty)
	}
	return tokens, nil
}
