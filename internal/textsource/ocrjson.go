package textsource

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/JakubGal/invoice-eval/internal/models"
)

// OCRJSON reads the pre-computed OCR sidecar shipped with each sample:
// {"items": [{"text": ..., "page": ..., "x0": ..., "y0": ..., ...}]}.
// Newer sidecars use a "bbox" array instead of the flat corner keys;
// both forms are accepted.
type OCRJSON struct{}

func (*OCRJSON) Kind() Kind { return KindOCRJSON }

func (*OCRJSON) Probe() error { return nil }

type ocrItem struct {
	Text string    `json:"text"`
	Page int       `json:"page"`
	BBox []float64 `json:"bbox"`
	X0   float64   `json:"x0"`
	Y0   float64   `json:"y0"`
	X1   float64   `json:"x1"`
	Y1   float64   `json:"y1"`
}

type ocrFile struct {
	Items []ocrItem `json:"items"`
}

func (o *OCRJSON) Tokens(ctx context.Context, sample *models.Sample) ([]models.TextToken, error) {
	data, err := os.ReadFile(sample.OCRPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sample.OCRPath, ErrEmpty)
	}

	var parsed ocrFile
	if err := json.Unmarshal(data, &parsed); err != nil {
		// Some sidecars are a bare item list.
		if err := json.Unmarshal(data, &parsed.Items); err != nil {
			return nil, fmt.Errorf("%s: unparseable sidecar: %w", sample.OCRPath, ErrEmpty)
		}
	}

	var tokens []models.TextToken
	for _, item := range parsed.Items {
		text := strings.TrimSpace(item.Text)
		if text == "" {
			continue
		}
		x0, y0, x1, y1 := item.X0, item.Y0, item.X1, item.Y1
		if len(item.BBox) == 4 {
			x0, y0, x1, y1 = item.BBox[0], item.BBox[1], item.BBox[2], item.BBox[3]
		}
		page := item.Page
		if page == 0 {
			page = 1
		}
		tokens = append(tokens, models.TextToken{
			Text:   text,
			Page:   page,
			X:      x0,
			Y:      y0,
			Width:  x1 - x0,
			Height: y1 - y0,
			Source: string(KindOCRJSON),
		})
	}

	if len(tokens) == 0 {
		return nil, fmt.Errorf("%s: %w", sample.OCRPath, ErrEmpty)
	}
	return tokens, nil
}
