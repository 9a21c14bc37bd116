package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/JakubGal/invoice-eval/internal/invoice"
)

var colonSplitRe = regexp.MustCompile(`[:\x{ff1a}]`)

func hasColon(line string) bool {
	return strings.ContainsAny(line, ":：")
}

// labelValue finds the value for any of the given field labels in the
// lines. Values live either after a colon on the label line, inline
// after the label, or on the following line. A sublabel line such as
// "name" between the section header and the value is stepped over.
func labelValue(lines []string, labels []string) string {
	if len(lines) == 0 || len(labels) == 0 {
		return ""
	}

	seen := map[string]bool{}
	var cleaned []string
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		cleaned = append(cleaned, label)
	}
	if len(cleaned) == 0 {
		return ""
	}
	// Longest first so "invoice number" wins over "invoice".
	sort.Slice(cleaned, func(i, j int) bool { return len(cleaned[i]) > len(cleaned[j]) })

	escaped := make([]string, len(cleaned))
	for i, label := range cleaned {
		escaped[i] = regexp.QuoteMeta(label)
	}
	labelRe := regexp.MustCompile("(?i)" + strings.Join(escaped, "|"))

	for idx, line := range lines {
		loc := labelRe.FindStringIndex(line)
		if loc == nil {
			continue
		}

		if hasColon(line) {
			parts := colonSplitRe.Split(line, 2)
			if len(parts) > 1 {
				if after := strings.Trim(parts[1], " -#"); after != "" {
					return after
				}
			}
		}

		matched := line[loc[0]:loc[1]]
		if invoice.NormalizeLabel(line) == invoice.NormalizeLabel(matched) {
			if value := nextLineValue(lines, idx, labelRe); value != "" {
				return value
			}
			continue
		}

		// Reject matches embedded inside a longer word unless a colon
		// separates label from value.
		before := byte(0)
		if loc[0] > 0 {
			before = line[loc[0]-1]
		}
		after := byte(0)
		if loc[1] < len(line) {
			after = line[loc[1]]
		}
		if (isAlnum(before) || isAlnum(after)) && !hasColon(line) {
			continue
		}

		if candidate := strings.Trim(line[loc[1]:], " -#"); candidate != "" {
			return candidate
		}
		if value := nextLineValue(lines, idx, labelRe); value != "" {
			return value
		}
	}
	return ""
}

func nextLineValue(lines []string, idx int, labelRe *regexp.Regexp) string {
	if idx+1 >= len(lines) {
		return ""
	}
	next := strings.TrimSpace(lines[idx+1])
	if next == "" || labelRe.MatchString(next) {
		return ""
	}
	if invoice.Sublabels[invoice.NormalizeLabel(next)] && idx+2 < len(lines) {
		return strings.TrimSpace(lines[idx+2])
	}
	return next
}

func isAlnum(b byte) bool {
	return unicode.IsLetter(rune(b)) || unicode.IsDigit(rune(b))
}
