package models

import "time"

// RunOutcome is the complete result of an evaluation run: every
// extraction result plus the per-group rollups.
type RunOutcome struct {
	RunID     string    `json:"run_id"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`

	Setup OutcomeSetup `json:"config"`

	// SkipNotes records engines that were unavailable at run start.
	SkipNotes []string `json:"skip_notes,omitempty"`

	Digest    OutcomeDigest      `json:"summary"`
	Summaries []AggregateSummary `json:"groups"`
	Results   []ExtractionResult `json:"results"`
}

// OutcomeSetup echoes the configuration the run was performed with.
type OutcomeSetup struct {
	DatasetDir  string   `json:"dataset"`
	Sources     []string `json:"sources"`
	Methods     []string `json:"methods"`
	Models      []string `json:"models,omitempty"`
	Workers     int      `json:"workers"`
	SampleLimit int      `json:"sample_limit,omitempty"`
	VisibleOnly bool     `json:"visible_only"`

	AmountTolerance float64 `json:"amount_tolerance"`
	NumberTolerance float64 `json:"number_tolerance"`
	TextThreshold   float64 `json:"text_threshold"`
	ItemThreshold   float64 `json:"item_threshold"`
}

// OutcomeDigest is the run-level tally across every combination.
type OutcomeDigest struct {
	Samples      int   `json:"samples"`
	Combinations int   `json:"combinations"`
	Scored       int   `json:"scored"`
	Skipped      int   `json:"skipped"`
	Failed       int   `json:"failed"`
	DurationMs   int64 `json:"duration_ms"`
}

// SummaryFor returns the group summary for a key, if present.
func (o *RunOutcome) SummaryFor(key GroupKey) (AggregateSummary, bool) {
	for _, summary := range o.Summaries {
		if summary.Key == key {
			return summary, true
		}
	}
	return AggregateSummary{}, false
}
