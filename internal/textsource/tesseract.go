package textsource

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/JakubGal/invoice-eval/internal/models"
)

// Tesseract runs the Tesseract OCR engine over the sample's pre-rendered
// page images. Tesseract emits plain text, so the tokens carry line order
// rather than true positions.
type Tesseract struct {
	// Languages is a "+"-separated Tesseract language list, e.g.
	// "eng+deu+ces". Empty means the engine default.
	Languages string
}

// NewTesseract picks up TESSERACT_LANGS from the environment, matching
// how the engine is usually configured in CI.
func NewTesseract() *Tesseract {
	return &Tesseract{Languages: strings.TrimSpace(os.Getenv("TESSERACT_LANGS"))}
}

func (*Tesseract) Kind() Kind { return KindTesseract }

func (*Tesseract) Probe() error {
	if _, err := exec.LookPath("tesseract"); err != nil {
		return fmt.Errorf("tesseract binary not on PATH: %w", ErrUnavailable)
	}
	return nil
}

func (t *Tesseract) Tokens(ctx context.Context, sample *models.Sample) ([]models.TextToken, error) {
	if err := t.Probe(); err != nil {
		return nil, err
	}
	if len(sample.ImagePaths) == 0 {
		return nil, fmt.Errorf("sample %s has no page images: %w", sample.ID, ErrUnavailable)
	}

	client := gosseract.NewClient()
	defer client.Close()
	if t.Languages != "" {
		if err := client.SetLanguage(strings.Split(t.Languages, "+")...); err != nil {
			return nil, fmt.Errorf("setting tesseract languages %q: %w", t.Languages, err)
		}
	}

	var tokens []models.TextToken
	for pageIdx, imagePath := range sample.ImagePaths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := client.SetImage(imagePath); err != nil {
			return nil, fmt.Errorf("loading %s: %w", imagePath, err)
		}
		text, err := client.Text()
		if err != nil {
			return nil, fmt.Errorf("ocr on %s: %w", imagePath, err)
		}
		tokens = append(tokens, lineTokens(text, pageIdx+1, string(KindTesseract))...)
	}

	if len(tokens) == 0 {
		return nil, fmt.Errorf("sample %s: %w", sample.ID, ErrEmpty)
	}
	return tokens, nil
}

// lineTokens converts engine plain text into one token per line, with
// synthetic Y spacing wide enough that the line assembler keeps them apart.
func lineTokens(text string, page int, source string) []models.TextToken {
	var tokens []models.TextToken
	y := 0.0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		tokens = append(tokens, models.TextToken{
			Text:   line,
			Page:   page,
			Y:      y,
			Source: source,
		})
		y += 2 * lineGap
	}
	return tokens
}
