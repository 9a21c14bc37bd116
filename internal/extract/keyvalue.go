package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/JakubGal/invoice-eval/internal/invoice"
	"github.com/JakubGal/invoice-eval/internal/scoring"
)

var dashSplitRe = regexp.MustCompile(`\s[-\x{2013}\x{2014}]\s`)

// kvMethod treats each line as a key/value pair split on a colon or a
// spaced dash, then assigns the value to the closest known label.
type kvMethod struct{}

func (m *kvMethod) Kind() Kind { return KindKeyValue }

func (m *kvMethod) Extract(_ context.Context, in Input) (invoice.Document, error) {
	return kvExtract(in.Lines), nil
}

func kvExtract(lines []string) invoice.Document {
	result := invoice.NewDocument()

	for idx, line := range lines {
		var left, right string
		switch {
		case hasColon(line):
			parts := colonSplitRe.Split(line, 2)
			left = parts[0]
			if len(parts) > 1 {
				right = parts[1]
			}
		case dashSplitRe.MatchString(line):
			parts := dashSplitRe.Split(line, 2)
			if len(parts) != 2 {
				continue
			}
			left, right = parts[0], parts[1]
		default:
			left = line
		}

		leftNorm := invoice.NormalizeLabel(left)
		right = strings.TrimSpace(right)

		bestPath, bestScore := "", 0.0
		for _, spec := range invoice.Fields {
			path := spec.Path
			for _, label := range invoice.Labels[path] {
				labelNorm := strings.TrimSpace(strings.ToLower(label))
				var score float64
				if labelNorm != "" && strings.Contains(leftNorm, labelNorm) {
					score = 1.0
				} else {
					score = scoring.TokenJaccard(leftNorm, labelNorm)
				}
				if score > bestScore {
					bestScore = score
					bestPath = path
				}
			}
		}

		if bestPath == "" || bestScore < 0.8 || invoice.GetString(result, bestPath) != "" {
			continue
		}
		if right != "" {
			invoice.Set(result, bestPath, right)
		} else if idx+1 < len(lines) {
			next := strings.TrimSpace(lines[idx+1])
			if next != "" && !invoice.LooksLikeLabel(next) {
				invoice.Set(result, bestPath, next)
			}
		}
	}

	if len(invoice.Items(result)) == 0 {
		if items := itemsFromLines(lines); len(items) > 0 {
			invoice.Set(result, "items", items)
		}
	}
	return result
}
