package scoring

import (
	"math"
	"strings"

	"github.com/JakubGal/invoice-eval/internal/invoice"
	"github.com/JakubGal/invoice-eval/internal/models"
)

// Scorer compares extracted documents against ground truth field by field.
type Scorer struct {
	// AmountTolerance and NumberTolerance bound the absolute error that
	// still counts as a numeric match.
	AmountTolerance float64
	NumberTolerance float64

	// TextThreshold is the token F1 a free-text field must exceed to
	// classify as a normalized match when the strings differ.
	TextThreshold float64
}

// NewScorer returns a scorer with the default tolerances.
func NewScorer() *Scorer {
	return &Scorer{AmountTolerance: 0.01, NumberTolerance: 0.5, TextThreshold: 0.5}
}

func (s *Scorer) tolerance(ftype invoice.FieldType) float64 {
	if ftype == invoice.FieldNumber {
		return s.NumberTolerance
	}
	return s.AmountTolerance
}

// ScoreFields scores every known field. When visible is non-nil, fields
// the sample's template does not render are left out entirely.
func (s *Scorer) ScoreFields(truth, pred map[string]any, visible map[string]bool) map[string]models.FieldScore {
	scores := make(map[string]models.FieldScore)
	for _, spec := range invoice.Fields {
		if visible != nil && !visible[spec.Path] {
			continue
		}
		scores[spec.Path] = s.scoreField(spec, invoice.Get(truth, spec.Path), invoice.Get(pred, spec.Path))
	}
	return scores
}

func (s *Scorer) scoreField(spec invoice.FieldSpec, truthVal, predVal any) models.FieldScore {
	truthStr := invoice.Stringify(truthVal)
	predStr := invoice.Stringify(predVal)

	score := models.FieldScore{
		Label:      spec.Label,
		Type:       string(spec.Type),
		Truth:      truthStr,
		Value:      predStr,
		Exact:      truthStr == predStr,
		Normalized: NormalizeText(truthStr) == NormalizeText(predStr),
		Present:    strings.TrimSpace(predStr) != "",
		TokenF1:    TokenF1(truthStr, predStr),
		Jaccard:    Jaccard(truthStr, predStr),
		CharSim:    CharSimilarity(truthStr, predStr),
	}

	switch spec.Type {
	case invoice.FieldAmount, invoice.FieldNumber:
		truthNum, truthOK := ParseNumber(truthVal)
		predNum, predOK := ParseNumber(predVal)
		if truthOK && predOK {
			absErr := math.Abs(truthNum - predNum)
			relErr := absErr / math.Max(math.Abs(truthNum), 1e-6)
			withinTol := absErr <= s.tolerance(spec.Type)
			score.Exact = withinTol
			score.Normalized = withinTol
			score.Numeric = &models.NumericScore{AbsErr: absErr, RelErr: relErr, WithinTol: withinTol}
		}
	case invoice.FieldDate:
		truthDate, truthOK := ParseDate(truthStr)
		predDate, predOK := ParseDate(predStr)
		if truthOK && predOK {
			same := truthDate.Equal(predDate)
			score.Exact = same
			score.Normalized = same
			score.Date = &models.DateScore{AbsDays: DaysBetween(truthDate, predDate)}
		}
	}

	if spec.Type == invoice.FieldText {
		score.Score = score.TokenF1
	} else if score.Exact {
		score.Score = 1.0
	}

	score.Kind = s.classify(spec, score, truthStr, predStr)
	return score
}

func (s *Scorer) classify(spec invoice.FieldSpec, score models.FieldScore, truthStr, predStr string) models.MatchKind {
	if truthStr == predStr {
		return models.MatchExact
	}
	if !score.Present {
		return models.MatchMissing
	}
	switch spec.Type {
	case invoice.FieldAmount, invoice.FieldNumber:
		if score.Numeric != nil && score.Numeric.WithinTol {
			return models.MatchNumericTol
		}
	case invoice.FieldDate:
		if score.Date != nil && score.Exact {
			return models.MatchDateTol
		}
	}
	if score.Normalized {
		return models.MatchNormalized
	}
	if spec.Type == invoice.FieldText && score.TokenF1 > s.TextThreshold {
		return models.MatchNormalized
	}
	return models.MatchMismatch
}
