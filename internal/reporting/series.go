package reporting

import "github.com/JakubGal/invoice-eval/internal/models"

// SeriesPoint is one bar of a chart series.
type SeriesPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Series holds one overall metric across all groups, in summary order,
// ready for an external plotter.
type Series struct {
	Metric string        `json:"metric"`
	Points []SeriesPoint `json:"points"`
}

// BuildSeries extracts chart series for every overall metric that at
// least one group produced. Groups that never scored contribute no point.
func BuildSeries(outcome *models.RunOutcome) []Series {
	metrics := []struct {
		name string
		get  func(models.OverallSummary) *float64
	}{
		{"exact_macro", func(o models.OverallSummary) *float64 { return o.ExactMacro }},
		{"normalized_macro", func(o models.OverallSummary) *float64 { return o.NormalizedMacro }},
		{"token_f1_macro", func(o models.OverallSummary) *float64 { return o.TokenF1Macro }},
		{"char_similarity_macro", func(o models.OverallSummary) *float64 { return o.CharSimMacro }},
		{"item_precision", func(o models.OverallSummary) *float64 { return o.ItemPrecision }},
		{"item_recall", func(o models.OverallSummary) *float64 { return o.ItemRecall }},
		{"item_f1", func(o models.OverallSummary) *float64 { return o.ItemF1 }},
	}

	var series []Series
	for _, metric := range metrics {
		var points []SeriesPoint
		for _, summary := range outcome.Summaries {
			value := metric.get(summary.Overall)
			if value == nil {
				continue
			}
			points = append(points, SeriesPoint{Label: summary.Key.String(), Value: *value})
		}
		if len(points) > 0 {
			series = append(series, Series{Metric: metric.name, Points: points})
		}
	}
	return series
}
