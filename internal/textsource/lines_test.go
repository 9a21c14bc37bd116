package textsource

import (
	"testing"

	"github.com/JakubGal/invoice-eval/internal/models"
	"github.com/stretchr/testify/assert"
)

func tok(text string, page int, x, y float64) models.TextToken {
	return models.TextToken{Text: text, Page: page, X: x, Y: y}
}

func TestLines_GroupsByVerticalProximity(t *testing.T) {
	tokens := []models.TextToken{
		tok("Invoice", 1, 10, 20),
		tok("number:", 1, 60, 21.5),
		tok("INV-100", 1, 120, 19),
		tok("Date:", 1, 10, 40),
		tok("2024-03-05", 1, 60, 40),
	}

	lines := Lines(tokens)

	// Within a line, tokens keep (y, x) sort order.
	assert.Equal(t, []string{"INV-100 Invoice number:", "Date: 2024-03-05"}, lines)
}

func TestLines_SortsAcrossPagesAndColumns(t *testing.T) {
	tokens := []models.TextToken{
		tok("second-page", 2, 0, 0),
		tok("bottom", 1, 0, 100),
		tok("right", 1, 50, 10),
		tok("left", 1, 5, 10),
	}

	lines := Lines(tokens)

	assert.Equal(t, []string{"left right", "bottom", "second-page"}, lines)
}

func TestLines_DropsEmptyTokens(t *testing.T) {
	tokens := []models.TextToken{
		tok("  ", 1, 0, 0),
		tok("only", 1, 0, 50),
	}

	assert.Equal(t, []string{"only"}, Lines(tokens))
}

func TestText(t *testing.T) {
	tokens := []models.TextToken{
		tok("a", 1, 0, 0),
		tok("b", 1, 0, 50),
	}
	assert.Equal(t, "a\nb", Text(tokens))
}
