package reporting

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakubGal/invoice-eval/internal/models"
)

func ptr(v float64) *float64 { return &v }

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	return string(data), err
}

func testOutcome() *models.RunOutcome {
	return &models.RunOutcome{
		RunID:     "run-abc",
		Name:      "smoke",
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Setup:     models.OutcomeSetup{DatasetDir: "testdata/invoices"},
		SkipNotes: []string{"tesseract: binary not on PATH"},
		Digest: models.OutcomeDigest{
			Samples:      2,
			Combinations: 4,
			Scored:       2,
			Skipped:      1,
			Failed:       1,
			DurationMs:   1500,
		},
		Summaries: []models.AggregateSummary{
			{
				Key: models.GroupKey{Method: "regex", Source: "pdf-text"},
				Overall: models.OverallSummary{
					SampleCount:    2,
					Scored:         2,
					ExactMacro:     ptr(0.5),
					TokenF1Macro:   ptr(0.75),
					ItemF1:         ptr(0.8),
					AccuracyMean:   ptr(0.75),
					AccuracyMedian: ptr(0.75),
					AccuracyStdDev: ptr(0.25),
					AccuracyCILow:  ptr(0.26),
					AccuracyCIHigh: ptr(1.0),
				},
				Fields: map[string]models.FieldAggregate{
					"invoice.number": {Label: "invoice number", Count: 2, ExactRate: ptr(1.0), TokenF1: ptr(1.0)},
					"seller.name":    {Label: "seller", Count: 2, ExactRate: ptr(0.0), TokenF1: ptr(0.5)},
				},
				Errors: map[string][]models.ErrorExample{
					"seller.name": {{Sample: "inv-002", Truth: "Acme GmbH", Value: "Acme", Score: 0.5}},
				},
			},
			{
				Key: models.GroupKey{Method: "llm-text", Source: "pdf-text", Model: "gpt-4o"},
				Overall: models.OverallSummary{
					SampleCount:  2,
					Scored:       0,
					Skipped:      1,
					Failed:       1,
				},
			},
		},
		Results: []models.ExtractionResult{
			{
				SampleID: "inv-001", Method: "regex", Source: "pdf-text",
				Status: models.StatusScored, ElapsedMs: 12,
				Evaluation: &models.SampleEvaluation{
					Fields: map[string]models.FieldScore{
						"invoice.number": {Exact: true, TokenF1: 1.0},
						"seller.name":    {TokenF1: 0.5},
					},
					Items: models.ItemMatch{F1: 0.8},
				},
			},
			{
				SampleID: "inv-002", Method: "regex", Source: "pdf-text",
				Status: models.StatusScored, ElapsedMs: 9,
				Evaluation: &models.SampleEvaluation{
					Fields: map[string]models.FieldScore{"invoice.number": {Exact: true, TokenF1: 1.0}},
					Items:  models.ItemMatch{Skipped: true},
				},
			},
			{
				SampleID: "inv-001", Method: "llm-text", Source: "pdf-text", Model: "gpt-4o",
				Status: models.StatusFailed, ErrorMsg: "quota exceeded", FailureKind: "rate_limited",
			},
			{
				SampleID: "inv-002", Method: "llm-text", Source: "pdf-text", Model: "gpt-4o",
				Status: models.StatusSkipped, SkipReason: "no text tokens",
			},
		},
	}
}

func TestWriteAndLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "run.json")
	outcome := testOutcome()

	require.NoError(t, WriteJSON(outcome, path))

	loaded, err := LoadOutcome(path)
	require.NoError(t, err)
	assert.Equal(t, outcome.RunID, loaded.RunID)
	assert.Equal(t, outcome.Digest, loaded.Digest)
	require.Len(t, loaded.Summaries, 2)
	require.NotNil(t, loaded.Summaries[0].Overall.TokenF1Macro)
	assert.InDelta(t, 0.75, *loaded.Summaries[0].Overall.TokenF1Macro, 1e-9)
	assert.Len(t, loaded.Results, 4)
}

func TestLoadOutcomeMissingFile(t *testing.T) {
	_, err := LoadOutcome(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestBuildSeries(t *testing.T) {
	series := BuildSeries(testOutcome())

	byMetric := make(map[string]Series)
	for _, s := range series {
		byMetric[s.Metric] = s
	}

	f1, ok := byMetric["token_f1_macro"]
	require.True(t, ok)
	require.Len(t, f1.Points, 1)
	assert.Equal(t, "pdf-text-regex", f1.Points[0].Label)
	assert.InDelta(t, 0.75, f1.Points[0].Value, 1e-9)

	// The failed group has nil metrics and must not appear anywhere.
	for _, s := range series {
		for _, p := range s.Points {
			assert.NotContains(t, p.Label, "gpt-4o")
		}
	}

	_, hasRecall := byMetric["item_recall"]
	assert.False(t, hasRecall)
}

func TestFormatSummary(t *testing.T) {
	text := FormatSummary(testOutcome())

	assert.Contains(t, text, "# Extraction Evaluation: smoke")
	assert.Contains(t, text, "run-abc")
	assert.Contains(t, text, "tesseract: binary not on PATH")
	assert.Contains(t, text, "| pdf-text-regex | 2 | 0.500 |")
	assert.Contains(t, text, "Best group: **pdf-text-regex**")
	assert.Contains(t, text, "| invoice.number | 1.000 |")
	assert.Contains(t, text, "Overall accuracy: mean 0.750, median 0.750, stddev 0.250 (95% CI 0.260-1.000)")
	assert.Contains(t, text, "No scored samples (1 skipped, 1 failed).")
	assert.Contains(t, text, `truth "Acme GmbH", got "Acme"`)

	// The scored group ranks above the group with no scores.
	assert.Less(t,
		strings.Index(text, "| pdf-text-regex |"),
		strings.Index(text, "| pdf-text-llm-text-gpt-4o |"))
}

func TestInterpretScore(t *testing.T) {
	assert.Equal(t, "Excellent (>90%)", InterpretScore(0.95))
	assert.Equal(t, "Good (70-90%)", InterpretScore(0.8))
	assert.Equal(t, "Needs Work (50-70%)", InterpretScore(0.6))
	assert.Equal(t, "Poor (<50%)", InterpretScore(0.2))
}

func TestConvertToJUnit(t *testing.T) {
	suites := ConvertToJUnit(testOutcome())

	assert.Equal(t, 4, suites.Tests)
	assert.Equal(t, 1, suites.Errors)
	require.Len(t, suites.TestSuites, 2)

	regex := suites.TestSuites[0]
	assert.Equal(t, "pdf-text-regex", regex.Name)
	assert.Equal(t, 2, regex.Tests)
	assert.Zero(t, regex.Errors)
	assert.Contains(t, regex.Properties, JUnitProperty{Name: "run_id", Value: "run-abc"})
	assert.Contains(t, regex.Properties, JUnitProperty{Name: "token_f1_macro", Value: "0.7500"})

	llmSuite := suites.TestSuites[1]
	assert.Equal(t, 1, llmSuite.Errors)
	assert.Equal(t, 1, llmSuite.Skipped)
	for _, tc := range llmSuite.TestCases {
		switch tc.Name {
		case "inv-001":
			require.NotNil(t, tc.Error)
			assert.Equal(t, "rate_limited", tc.Error.Type)
			assert.Equal(t, "quota exceeded", tc.Error.Message)
		case "inv-002":
			require.NotNil(t, tc.Skipped)
			assert.Equal(t, "no text tokens", tc.Skipped.Message)
		}
	}
}

func TestWriteJUnitXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junit.xml")
	require.NoError(t, WriteJUnitXML(testOutcome(), path))

	data, err := readFile(path)
	require.NoError(t, err)
	assert.Contains(t, data, "<?xml")
	assert.Contains(t, data, `name="pdf-text-regex"`)
	assert.Contains(t, data, `type="rate_limited"`)
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, WriteCSV(testOutcome(), path))

	data, err := readFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(data), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, strings.Join(csvHeader, ","), lines[0])
	assert.Equal(t, "inv-001,regex,pdf-text,,scored,1,2,0.7500,0.8000,12,", lines[1])
	assert.Contains(t, lines[3], "quota exceeded")
	assert.Contains(t, lines[4], "no text tokens")

	// Skipped item match leaves the item_f1 column empty.
	assert.Contains(t, lines[2], ",scored,1,1,1.0000,,9,")
}
