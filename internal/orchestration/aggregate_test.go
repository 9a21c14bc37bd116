package orchestration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakubGal/invoice-eval/internal/models"
)

func scoredResult(sample string, fieldScores map[string]float64) *models.ExtractionResult {
	fields := make(map[string]models.FieldScore, len(fieldScores))
	for path, score := range fieldScores {
		fields[path] = models.FieldScore{Present: true, Score: score, TokenF1: score}
	}
	return &models.ExtractionResult{
		SampleID:   sample,
		Status:     models.StatusScored,
		Evaluation: &models.SampleEvaluation{Fields: fields, Items: models.ItemMatch{Skipped: true}},
	}
}

func TestAggregatorAccuracyStats(t *testing.T) {
	agg := newAggregator(models.GroupKey{Method: "regex", Source: "pdf-text"})

	// Per-sample accuracies: 0.8, 0.5, 0.1.
	agg.add(scoredResult("a", map[string]float64{"invoice.number": 1.0, "seller.name": 0.6}))
	agg.add(scoredResult("b", map[string]float64{"invoice.number": 0.4, "seller.name": 0.6}))
	agg.add(scoredResult("c", map[string]float64{"invoice.number": 0.2, "seller.name": 0.0}))

	summary := agg.finalize(5)
	o := summary.Overall

	assert.Equal(t, 3, o.Scored)
	require.NotNil(t, o.AccuracyMean)
	require.NotNil(t, o.AccuracyMedian)
	require.NotNil(t, o.AccuracyStdDev)
	require.NotNil(t, o.AccuracyCILow)
	require.NotNil(t, o.AccuracyCIHigh)

	assert.InDelta(t, 0.4666667, *o.AccuracyMean, 1e-6)
	assert.InDelta(t, 0.5, *o.AccuracyMedian, 1e-9)
	assert.InDelta(t, 0.2867442, *o.AccuracyStdDev, 1e-6)
	assert.Less(t, *o.AccuracyCILow, *o.AccuracyMean)
	assert.Greater(t, *o.AccuracyCIHigh, *o.AccuracyMean)
}

func TestAggregatorNoScoredSamples(t *testing.T) {
	agg := newAggregator(models.GroupKey{Method: "regex", Source: "pdf-text"})
	agg.add(&models.ExtractionResult{SampleID: "a", Status: models.StatusSkipped})
	agg.add(&models.ExtractionResult{SampleID: "b", Status: models.StatusFailed})

	summary := agg.finalize(5)
	o := summary.Overall

	assert.Equal(t, 2, o.SampleCount)
	assert.Equal(t, 0, o.Scored)
	assert.Equal(t, 1, o.Skipped)
	assert.Equal(t, 1, o.Failed)
	assert.Nil(t, o.AccuracyMean)
	assert.Nil(t, o.AccuracyMedian)
	assert.Nil(t, o.ExactMacro)
}
