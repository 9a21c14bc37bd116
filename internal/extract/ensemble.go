package extract

import (
	"context"

	"github.com/JakubGal/invoice-eval/internal/invoice"
)

// ensembleMethod merges the heuristic extractors, preferring pattern
// output, then key/value, then plain label matching, and keeps the
// longest item list any of them produced.
type ensembleMethod struct{}

func (m *ensembleMethod) Kind() Kind { return KindEnsemble }

func (m *ensembleMethod) Extract(_ context.Context, in Input) (invoice.Document, error) {
	return ensembleExtract(in.Lines), nil
}

func ensembleExtract(lines []string) invoice.Document {
	regex := regexExtract(lines)
	kv := kvExtract(lines)
	pattern := patternExtract(lines)

	merged := MergeMissing(pattern, kv)
	merged = MergeMissing(merged, regex)

	best := invoice.Items(regex)
	for _, candidate := range [][]invoice.Document{invoice.Items(kv), invoice.Items(pattern)} {
		if len(candidate) > len(best) {
			best = candidate
		}
	}
	if len(best) > 0 {
		invoice.Set(merged, "items", best)
	}
	return merged
}

// MergeMissing copies fields the primary document is missing from the
// fallback, items included.
func MergeMissing(primary, fallback invoice.Document) invoice.Document {
	merged := invoice.NewDocument()
	for _, spec := range invoice.Fields {
		value := invoice.Get(primary, spec.Path)
		if invoice.Stringify(value) == "" {
			value = invoice.Get(fallback, spec.Path)
		}
		if invoice.Stringify(value) != "" {
			invoice.Set(merged, spec.Path, value)
		}
	}

	items := invoice.Items(primary)
	if len(items) == 0 {
		items = invoice.Items(fallback)
	}
	if len(items) > 0 {
		invoice.Set(merged, "items", items)
	}
	return merged
}
