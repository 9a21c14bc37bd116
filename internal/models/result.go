package models

// ResultStatus distinguishes scored results from skips and failures.
// Skipped combinations never enter score denominators.
type ResultStatus string

const (
	StatusScored  ResultStatus = "scored"
	StatusSkipped ResultStatus = "skipped"
	StatusFailed  ResultStatus = "failed"
)

// MatchKind is the per-field comparison outcome.
type MatchKind string

const (
	MatchExact      MatchKind = "exact"
	MatchNormalized MatchKind = "normalized"
	MatchNumericTol MatchKind = "numeric-within-tolerance"
	MatchDateTol    MatchKind = "date-within-tolerance"
	MatchMismatch   MatchKind = "mismatch"
	MatchMissing    MatchKind = "missing"
)

// ExtractionResult is the outcome of one (sample, source, method, model)
// combination. Results are append-only and never mutated after creation.
type ExtractionResult struct {
	SampleID string `json:"sample"`
	Method   string `json:"method"`
	Source   string `json:"source"`
	Model    string `json:"model,omitempty"`

	Status ResultStatus `json:"status"`

	// Document is the extracted payload; nil when skipped or failed.
	Document map[string]any `json:"document,omitempty"`

	Evaluation *SampleEvaluation `json:"evaluation,omitempty"`

	SkipReason  string `json:"skip_reason,omitempty"`
	ErrorMsg    string `json:"error,omitempty"`
	FailureKind string `json:"failure_kind,omitempty"`

	ElapsedMs int64 `json:"elapsed_ms"`
}

// SampleEvaluation holds the scored comparison of one extraction against
// ground truth.
type SampleEvaluation struct {
	Fields map[string]FieldScore `json:"fields"`
	Items  ItemMatch             `json:"items"`
}

// FieldScore records how one extracted field compared to the truth value.
type FieldScore struct {
	Label string    `json:"label"`
	Type  string    `json:"type"`
	Truth string    `json:"truth"`
	Value string    `json:"value"`
	Kind  MatchKind `json:"kind"`

	Exact      bool    `json:"exact"`
	Normalized bool    `json:"normalized"`
	Present    bool    `json:"present"`
	TokenF1    float64 `json:"token_f1"`
	Jaccard    float64 `json:"jaccard"`
	CharSim    float64 `json:"char_sim"`

	Numeric *NumericScore `json:"numeric,omitempty"`
	Date    *DateScore    `json:"date,omitempty"`

	// Score is the single headline number for the field: token F1 for
	// text, 1/0 for typed matches.
	Score float64 `json:"score"`
}

// NumericScore is populated when both sides parsed as numbers.
type NumericScore struct {
	AbsErr    float64 `json:"abs_err"`
	RelErr    float64 `json:"rel_err"`
	WithinTol bool    `json:"within_tol"`
}

// DateScore is populated when both sides parsed as dates.
type DateScore struct {
	AbsDays int `json:"abs_days"`
}

// Tally is a correct/total counter.
type Tally struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Rate returns correct/total, or 0 when nothing was counted.
func (t Tally) Rate() float64 {
	if t.Total == 0 {
		return 0
	}
	return float64(t.Correct) / float64(t.Total)
}

// ItemMatch is the result of matching predicted line items against truth.
type ItemMatch struct {
	Skipped bool `json:"skipped,omitempty"`

	Matched    int `json:"matched"`
	TruthCount int `json:"truth_count"`
	PredCount  int `json:"pred_count"`

	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`

	FieldTallies  map[string]Tally   `json:"field_tallies,omitempty"`
	FieldAccuracy map[string]float64 `json:"field_accuracy,omitempty"`
}
