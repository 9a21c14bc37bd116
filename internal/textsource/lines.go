package textsource

import (
	"regexp"
	"sort"
	"strings"

	"github.com/JakubGal/invoice-eval/internal/models"
)

// lineGap is the vertical distance below which two tokens belong to the
// same visual line.
const lineGap = 4.0

var collapseRe = regexp.MustCompile(`\s+`)

// Lines assembles tokens into visual lines: sort by page, then top to
// bottom, then left to right, and merge tokens whose vertical positions
// differ by less than lineGap.
func Lines(tokens []models.TextToken) []string {
	sorted := make([]models.TextToken, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Page != sorted[j].Page {
			return sorted[i].Page < sorted[j].Page
		}
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y < sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var lines []string
	var current []string
	lastPage := -1
	lastY := 0.0
	flush := func() {
		if len(current) > 0 {
			line := collapseRe.ReplaceAllString(strings.Join(current, " "), " ")
			line = strings.TrimSpace(line)
			if line != "" {
				lines = append(lines, line)
			}
			current = nil
		}
	}

	for _, tok := range sorted {
		text := strings.TrimSpace(tok.Text)
		if text == "" {
			continue
		}
		sameLine := tok.Page == lastPage && abs(tok.Y-lastY) < lineGap
		if !sameLine && lastPage != -1 {
			flush()
		}
		current = append(current, text)
		lastPage = tok.Page
		lastY = tok.Y
	}
	flush()
	return lines
}

// Text renders tokens as newline-joined lines, the form the heuristic
// extractors and LLM prompts consume.
func Text(tokens []models.TextToken) string {
	return strings.Join(Lines(tokens), "\n")
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
