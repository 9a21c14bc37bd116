package textsource

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/JakubGal/invoice-eval/internal/models"
)

// EasyOCR shells out to the easyocr CLI when it is installed. Like
// Tesseract, output is plain text, so tokens carry line order only.
type EasyOCR struct {
	Languages string
}

func (*EasyOCR) Kind() Kind { return KindEasyOCR }

func (*EasyOCR) Probe() error {
	if _, err := exec.LookPath("easyocr"); err != nil {
		return fmt.Errorf("easyocr CLI not on PATH: %w", ErrUnavailable)
	}
	return nil
}

func (e *EasyOCR) Tokens(ctx context.Context, sample *models.Sample) ([]models.TextToken, error) {
	if err := e.Probe(); err != nil {
		return nil, err
	}
	if len(sample.ImagePaths) == 0 {
		return nil, fmt.Errorf("sample %s has no page images: %w", sample.ID, ErrUnavailable)
	}

	langs := e.Languages
	if langs == "" {
		langs = "en"
	}

	var tokens []models.TextToken
	for pageIdx, imagePath := range sample.ImagePaths {
		cmd := exec.CommandContext(ctx, "easyocr", "-l", langs, "-f", imagePath, "--detail", "0", "--gpu", "False")
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("easyocr on %s: %w (%s)", imagePath, err, stderr.String())
		}
		tokens = append(tokens, lineTokens(stdout.String(), pageIdx+1, string(KindEasyOCR))...)
	}

	if len(tokens) == 0 {
		return nil, fmt.Errorf("sample %s: %w", sample.ID, ErrEmpty)
	}
	return tokens, nil
}
