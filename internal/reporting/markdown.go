package reporting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/JakubGal/invoice-eval/internal/models"
)

// InterpretScore returns a plain-language label for a numeric score (0-1).
func InterpretScore(score float64) string {
	pct := score * 100
	switch {
	case pct > 90:
		return "Excellent (>90%)"
	case pct >= 70:
		return "Good (70-90%)"
	case pct >= 50:
		return "Needs Work (50-70%)"
	default:
		return "Poor (<50%)"
	}
}

func fmtRate(value *float64) string {
	if value == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", *value)
}

// rankScore orders groups in the leaderboard. Token F1 is the headline
// metric; groups that never scored sink to the bottom.
func rankScore(summary models.AggregateSummary) float64 {
	if summary.Overall.TokenF1Macro == nil {
		return -1
	}
	return *summary.Overall.TokenF1Macro
}

// FormatSummary renders a markdown report for terminal or PR display.
func FormatSummary(outcome *models.RunOutcome) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("# Extraction Evaluation: %s\n\n", outcome.Name))
	b.WriteString(fmt.Sprintf("Run `%s` at %s\n\n", outcome.RunID, outcome.Timestamp.Format(time.RFC3339)))

	d := outcome.Digest
	b.WriteString(fmt.Sprintf("**%d** samples, **%d** combinations: %d scored, %d skipped, %d failed in %v\n\n",
		d.Samples, d.Combinations, d.Scored, d.Skipped, d.Failed,
		time.Duration(d.DurationMs)*time.Millisecond))

	if len(outcome.SkipNotes) > 0 {
		b.WriteString("## Unavailable engines\n\n")
		for _, note := range outcome.SkipNotes {
			b.WriteString(fmt.Sprintf("- %s\n", note))
		}
		b.WriteString("\n")
	}

	ranked := make([]models.AggregateSummary, len(outcome.Summaries))
	copy(ranked, outcome.Summaries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return rankScore(ranked[i]) > rankScore(ranked[j])
	})

	b.WriteString("## Leaderboard\n\n")
	b.WriteString("| Group | Scored | Exact | Normalized | Token F1 | Item F1 |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, summary := range ranked {
		o := summary.Overall
		b.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %s | %s |\n",
			summary.Key.String(), o.Scored,
			fmtRate(o.ExactMacro), fmtRate(o.NormalizedMacro),
			fmtRate(o.TokenF1Macro), fmtRate(o.ItemF1)))
	}
	b.WriteString("\n")

	if len(ranked) > 0 && ranked[0].Overall.TokenF1Macro != nil {
		best := ranked[0]
		b.WriteString(fmt.Sprintf("Best group: **%s**, token F1 %.3f: %s\n\n",
			best.Key.String(), *best.Overall.TokenF1Macro, InterpretScore(*best.Overall.TokenF1Macro)))
	}

	for _, summary := range ranked {
		b.WriteString(formatGroup(summary))
	}

	return b.String()
}

func formatGroup(summary models.AggregateSummary) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("## %s\n\n", summary.Key.String()))

	o := summary.Overall
	if o.Scored == 0 {
		b.WriteString(fmt.Sprintf("No scored samples (%d skipped, %d failed).\n\n", o.Skipped, o.Failed))
		return b.String()
	}

	if o.AccuracyMean != nil {
		b.WriteString(fmt.Sprintf("Overall accuracy: mean %s, median %s, stddev %s (95%% CI %s-%s)\n\n",
			fmtRate(o.AccuracyMean), fmtRate(o.AccuracyMedian), fmtRate(o.AccuracyStdDev),
			fmtRate(o.AccuracyCILow), fmtRate(o.AccuracyCIHigh)))
	}

	b.WriteString("| Field | Exact | Normalized | Token F1 | Present |\n")
	b.WriteString("|---|---|---|---|---|\n")
	paths := make([]string, 0, len(summary.Fields))
	for path := range summary.Fields {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		f := summary.Fields[path]
		b.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
			path, fmtRate(f.ExactRate), fmtRate(f.NormalizedRate),
			fmtRate(f.TokenF1), fmtRate(f.PresentRate)))
	}
	b.WriteString("\n")

	if o.ItemF1 != nil {
		b.WriteString(fmt.Sprintf("Items: precision %s, recall %s, F1 %s\n\n",
			fmtRate(o.ItemPrecision), fmtRate(o.ItemRecall), fmtRate(o.ItemF1)))
	}

	if len(summary.Errors) > 0 {
		b.WriteString("<details><summary>Worst examples</summary>\n\n")
		errPaths := make([]string, 0, len(summary.Errors))
		for path := range summary.Errors {
			errPaths = append(errPaths, path)
		}
		sort.Strings(errPaths)
		for _, path := range errPaths {
			for _, ex := range summary.Errors[path] {
				b.WriteString(fmt.Sprintf("- `%s` %s: truth %q, got %q (%.2f)\n",
					ex.Sample, path, ex.Truth, ex.Value, ex.Score))
			}
		}
		b.WriteString("\n</details>\n\n")
	}

	return b.String()
}
