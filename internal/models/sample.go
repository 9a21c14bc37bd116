package models

// Sample is one dataset entry: ground truth plus the rendered artifacts
// extraction runs against. Samples are immutable once loaded.
type Sample struct {
	ID       string         `json:"id"`
	Data     map[string]any `json:"-"`
	Template map[string]any `json:"-"`

	// VisiblePaths are the field paths the sample's template actually
	// renders. ItemsVisible reports whether the item table is rendered.
	VisiblePaths map[string]bool `json:"-"`
	ItemsVisible bool            `json:"-"`

	PDFPath string `json:"pdf_path"`
	OCRPath string `json:"ocr_path"`

	// ImagePaths are pre-rendered page rasters (page order), used by the
	// OCR engines and vision models. May be empty.
	ImagePaths []string `json:"image_paths,omitempty"`
}

// TextToken is one positioned fragment of document text.
type TextToken struct {
	Text   string  `json:"text"`
	Page   int     `json:"page"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"w,omitempty"`
	Height float64 `json:"h,omitempty"`
	Source string  `json:"source,omitempty"`
}
