package scoring

import (
	"regexp"
	"strconv"
	"strings"
)

var numericCharsRe = regexp.MustCompile(`[^\d,.\-]`)

// ParseNumber parses an amount or quantity out of a document value,
// tolerating currency symbols and both EU and US separator conventions
// ("1.234,50" and "1,234.50" both parse as 1234.5).
func ParseNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}

	text := strings.TrimSpace(stringValue(value))
	if text == "" {
		return 0, false
	}
	text = numericCharsRe.ReplaceAllString(text, "")
	if text == "" {
		return 0, false
	}

	hasComma := strings.Contains(text, ",")
	hasDot := strings.Contains(text, ".")
	switch {
	case hasComma && hasDot:
		if strings.LastIndex(text, ",") > strings.LastIndex(text, ".") {
			// EU convention: dot groups thousands, comma is decimal.
			text = strings.ReplaceAll(text, ".", "")
			text = strings.ReplaceAll(text, ",", ".")
		} else {
			text = strings.ReplaceAll(text, ",", "")
		}
	case hasComma:
		text = strings.ReplaceAll(text, ",", ".")
	}

	parsed, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

func stringValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}
