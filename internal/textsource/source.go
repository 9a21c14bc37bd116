// Package textsource turns dataset artifacts into positioned text tokens.
// Every adapter distinguishes "this engine cannot run here" and "the
// document yielded no text" from real failures, so runs can skip instead
// of erroring.
package textsource

import (
	"context"
	"errors"
	"fmt"

	"github.com/JakubGal/invoice-eval/internal/models"
)

// Kind names a text source adapter.
type Kind string

const (
	KindPDFText   Kind = "pdf-text"
	KindTesseract Kind = "tesseract"
	KindEasyOCR   Kind = "easyocr"
	KindOCRJSON   Kind = "ocr-json"
)

var (
	// ErrUnavailable means the engine or its inputs are absent on this
	// machine. Runs skip the combination rather than failing it.
	ErrUnavailable = errors.New("text source unavailable")

	// ErrEmpty means the source ran but produced no text.
	ErrEmpty = errors.New("no extractable text")
)

// IsSkip reports whether an extraction error is a skip signal rather
// than a failure.
func IsSkip(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrEmpty)
}

// Source extracts positioned text tokens from one sample's artifacts.
type Source interface {
	Kind() Kind

	// Probe checks engine availability without touching a sample.
	// Returns an error wrapping ErrUnavailable when the engine cannot run.
	Probe() error

	// Tokens returns the sample's text in reading order.
	Tokens(ctx context.Context, sample *models.Sample) ([]models.TextToken, error)
}

// New creates the adapter for a source kind.
func New(kind Kind) (Source, error) {
	switch kind {
	case KindPDFText:
		return &PDFText{}, nil
	case KindTesseract:
		return NewTesseract(), nil
	case KindEasyOCR:
		return &EasyOCR{Languages: "en"}, nil
	case KindOCRJSON:
		return &OCRJSON{}, nil
	default:
		return nil, fmt.Errorf("unknown text source %q", kind)
	}
}
