package scoring

import (
	"math"

	"github.com/JakubGal/invoice-eval/internal/invoice"
	"github.com/JakubGal/invoice-eval/internal/metrics"
	"github.com/JakubGal/invoice-eval/internal/models"
)

// Matcher pairs predicted line items with ground-truth items one-to-one.
type Matcher struct {
	// Threshold is the minimum similarity for a pair to count as matched.
	Threshold float64

	AmountTolerance float64
	NumberTolerance float64
}

// NewMatcher returns a matcher with the default threshold and tolerances.
func NewMatcher() *Matcher {
	return &Matcher{Threshold: 0.5, AmountTolerance: 0.01, NumberTolerance: 0.5}
}

// Similarity scores one candidate pair: description token F1 weighted 0.4,
// the three numeric fields 0.2 each with closeness 1-min(|Δ|/max(|truth|,1),1).
func (m *Matcher) Similarity(truth, pred map[string]any) float64 {
	descScore := TokenF1(invoice.Stringify(truth["description"]), invoice.Stringify(pred["description"]))
	score := 0.4 * descScore
	for _, key := range []string{"qty", "unit_price", "line_total"} {
		truthNum, truthOK := ParseNumber(truth[key])
		predNum, predOK := ParseNumber(pred[key])
		if !truthOK || !predOK {
			continue
		}
		closeness := 1.0 - math.Min(math.Abs(truthNum-predNum)/math.Max(math.Abs(truthNum), 1.0), 1.0)
		score += 0.2 * closeness
	}
	return score
}

// Match performs greedy best-first matching. Each predicted item is
// consumed by at most one truth item; pairs below the threshold stay
// unmatched.
func (m *Matcher) Match(truthItems, predItems []map[string]any) models.ItemMatch {
	type pair struct {
		truthIdx int
		predIdx  int
	}

	usedPred := make(map[int]bool)
	var matches []pair
	for ti, truth := range truthItems {
		bestIdx := -1
		bestScore := 0.0
		for pi, pred := range predItems {
			if usedPred[pi] {
				continue
			}
			if score := m.Similarity(truth, pred); score > bestScore {
				bestIdx = pi
				bestScore = score
			}
		}
		if bestIdx >= 0 && bestScore >= m.Threshold {
			usedPred[bestIdx] = true
			matches = append(matches, pair{truthIdx: ti, predIdx: bestIdx})
		}
	}

	precision := metrics.Ratio(len(matches), len(predItems))
	recall := metrics.Ratio(len(matches), len(truthItems))

	tallies := make(map[string]models.Tally, len(invoice.ItemFields))
	for _, spec := range invoice.ItemFields {
		tallies[spec.Path] = models.Tally{}
	}
	for _, match := range matches {
		truth := truthItems[match.truthIdx]
		pred := predItems[match.predIdx]
		for _, spec := range invoice.ItemFields {
			tally := tallies[spec.Path]
			tally.Total++
			if m.itemFieldMatches(spec, truth[spec.Path], pred[spec.Path]) {
				tally.Correct++
			}
			tallies[spec.Path] = tally
		}
	}

	accuracy := make(map[string]float64, len(tallies))
	for path, tally := range tallies {
		accuracy[path] = tally.Rate()
	}

	return models.ItemMatch{
		Matched:       len(matches),
		TruthCount:    len(truthItems),
		PredCount:     len(predItems),
		Precision:     precision,
		Recall:        recall,
		F1:            metrics.F1(precision, recall),
		FieldTallies:  tallies,
		FieldAccuracy: accuracy,
	}
}

func (m *Matcher) itemFieldMatches(spec invoice.FieldSpec, truthVal, predVal any) bool {
	if spec.Type == invoice.FieldText {
		return NormalizeText(invoice.Stringify(truthVal)) == NormalizeText(invoice.Stringify(predVal))
	}
	truthNum, truthOK := ParseNumber(truthVal)
	predNum, predOK := ParseNumber(predVal)
	if !truthOK || !predOK {
		return false
	}
	tol := m.AmountTolerance
	if spec.Type == invoice.FieldNumber {
		tol = m.NumberTolerance
	}
	return math.Abs(truthNum-predNum) <= tol
}
