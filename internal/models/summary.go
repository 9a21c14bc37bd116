package models

// GroupKey identifies an aggregate bucket. Text methods group by
// (method, source); LLM methods also carry the model.
type GroupKey struct {
	Method string `json:"method"`
	Source string `json:"source"`
	Model  string `json:"model,omitempty"`
}

func (k GroupKey) String() string {
	name := k.Method
	if k.Source != "" {
		name = k.Source + "-" + k.Method
	}
	if k.Model != "" {
		name += "-" + k.Model
	}
	return name
}

// FieldAggregate summarizes one field across the scored samples of a group.
// Rate pointers are nil when no sample contributed the underlying metric.
type FieldAggregate struct {
	Label string `json:"label"`
	Type  string `json:"type"`
	Count int    `json:"count"`

	PresentRate    *float64 `json:"present_rate,omitempty"`
	ExactRate      *float64 `json:"exact_rate,omitempty"`
	NormalizedRate *float64 `json:"normalized_rate,omitempty"`
	TokenF1        *float64 `json:"token_f1,omitempty"`
	Jaccard        *float64 `json:"jaccard,omitempty"`
	CharSimilarity *float64 `json:"char_similarity,omitempty"`

	NumericMAE       *float64 `json:"numeric_mae,omitempty"`
	NumericMAPE      *float64 `json:"numeric_mape,omitempty"`
	NumericWithinTol *float64 `json:"numeric_within_tol,omitempty"`
	DateMAEDays      *float64 `json:"date_mae_days,omitempty"`
}

// ErrorExample is one low-scoring extraction kept for the report.
type ErrorExample struct {
	Sample string  `json:"sample"`
	Truth  string  `json:"truth"`
	Value  string  `json:"value"`
	Score  float64 `json:"score"`
}

// OverallSummary carries the macro metrics of a group.
type OverallSummary struct {
	SampleCount int `json:"sample_count"`
	Scored      int `json:"scored"`
	Skipped     int `json:"skipped"`
	Failed      int `json:"failed"`

	ExactMacro      *float64 `json:"exact_macro,omitempty"`
	NormalizedMacro *float64 `json:"normalized_macro,omitempty"`
	TokenF1Macro    *float64 `json:"token_f1_macro,omitempty"`
	CharSimMacro    *float64 `json:"char_similarity_macro,omitempty"`

	// Accuracy stats describe the distribution of per-sample overall
	// accuracy (mean field score) across the scored results of the group.
	AccuracyMean   *float64 `json:"accuracy_mean,omitempty"`
	AccuracyMedian *float64 `json:"accuracy_median,omitempty"`
	AccuracyStdDev *float64 `json:"accuracy_stddev,omitempty"`
	AccuracyCILow  *float64 `json:"accuracy_ci95_low,omitempty"`
	AccuracyCIHigh *float64 `json:"accuracy_ci95_high,omitempty"`

	ItemPrecision     *float64           `json:"item_precision,omitempty"`
	ItemRecall        *float64           `json:"item_recall,omitempty"`
	ItemF1            *float64           `json:"item_f1,omitempty"`
	ItemFieldAccuracy map[string]float64 `json:"item_field_accuracy,omitempty"`
}

// AggregateSummary rolls up everything scored for one group. A group with
// zero scored samples still produces a summary, with zero counts and nil
// rates.
type AggregateSummary struct {
	Key     GroupKey                  `json:"key"`
	Overall OverallSummary            `json:"overall"`
	Fields  map[string]FieldAggregate `json:"fields"`

	// Errors holds the worst-N examples per field, sorted by score
	// ascending.
	Errors map[string][]ErrorExample `json:"errors,omitempty"`
}
