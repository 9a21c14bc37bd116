package reporting

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/JakubGal/invoice-eval/internal/metrics"
	"github.com/JakubGal/invoice-eval/internal/models"
)

var csvHeader = []string{
	"sample", "method", "source", "model", "status",
	"exact_fields", "scored_fields", "token_f1_mean",
	"item_f1", "elapsed_ms", "error",
}

// WriteCSV exports one row per extraction result, for spreadsheet
// inspection of a run.
func WriteCSV(outcome *models.RunOutcome, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csv: create %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for _, result := range outcome.Results {
		if err := w.Write(resultRow(&result)); err != nil {
			return fmt.Errorf("csv: write row for %s: %w", result.SampleID, err)
		}
	}

	w.Flush()
	return w.Error()
}

func resultRow(result *models.ExtractionResult) []string {
	row := []string{
		result.SampleID,
		result.Method,
		result.Source,
		result.Model,
		string(result.Status),
		"", "", "", "",
		strconv.FormatInt(result.ElapsedMs, 10),
		firstNonEmpty(result.ErrorMsg, result.SkipReason),
	}

	if eval := result.Evaluation; eval != nil {
		exact := 0
		f1s := make([]float64, 0, len(eval.Fields))
		for _, score := range eval.Fields {
			if score.Exact {
				exact++
			}
			f1s = append(f1s, score.TokenF1)
		}
		row[5] = strconv.Itoa(exact)
		row[6] = strconv.Itoa(len(eval.Fields))
		row[7] = fmt.Sprintf("%.4f", metrics.Mean(f1s))
		if !eval.Items.Skipped {
			row[8] = fmt.Sprintf("%.4f", eval.Items.F1)
		}
	}
	return row
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
