package orchestration

import (
	"sort"

	"github.com/JakubGal/invoice-eval/internal/invoice"
	"github.com/JakubGal/invoice-eval/internal/metrics"
	"github.com/JakubGal/invoice-eval/internal/models"
)

// aggregator accumulates scored results for one group key. Skipped and
// failed results only bump their counters; field and item sums come
// from scored results alone.
type aggregator struct {
	key models.GroupKey

	scored  int
	skipped int
	failed  int

	fields     map[string]*fieldAccum
	errors     map[string][]models.ErrorExample
	accuracies []float64

	itemSamples int
	itemTruth   int
	itemPred    int
	itemMatched int
	itemTallies map[string]models.Tally
}

type fieldAccum struct {
	label string
	ftype string

	count      int
	present    int
	exact      int
	normalized int

	tokenF1Sum float64
	jaccardSum float64
	charSimSum float64

	numericCount int
	absErrSum    float64
	relErrSum    float64
	withinTol    int

	dateCount  int
	dateErrSum float64
}

func newAggregator(key models.GroupKey) *aggregator {
	agg := &aggregator{
		key:         key,
		fields:      make(map[string]*fieldAccum, len(invoice.Fields)),
		errors:      make(map[string][]models.ErrorExample),
		itemTallies: make(map[string]models.Tally, len(invoice.ItemFields)),
	}
	for _, spec := range invoice.Fields {
		agg.fields[spec.Path] = &fieldAccum{label: spec.Label, ftype: string(spec.Type)}
	}
	for _, spec := range invoice.ItemFields {
		agg.itemTallies[spec.Path] = models.Tally{}
	}
	return agg
}

func (a *aggregator) add(result *models.ExtractionResult) {
	switch result.Status {
	case models.StatusSkipped:
		a.skipped++
		return
	case models.StatusFailed:
		a.failed++
		return
	}
	a.scored++

	eval := result.Evaluation
	if eval == nil {
		return
	}

	var scoreSum float64
	var scoreCount int
	for path, score := range eval.Fields {
		scoreSum += score.Score
		scoreCount++

		accum, ok := a.fields[path]
		if !ok {
			continue
		}
		accum.count++
		if score.Present {
			accum.present++
		}
		if score.Exact {
			accum.exact++
		}
		if score.Normalized {
			accum.normalized++
		}
		accum.tokenF1Sum += score.TokenF1
		accum.jaccardSum += score.Jaccard
		accum.charSimSum += score.CharSim

		if score.Numeric != nil {
			accum.numericCount++
			accum.absErrSum += score.Numeric.AbsErr
			accum.relErrSum += score.Numeric.RelErr
			if score.Numeric.WithinTol {
				accum.withinTol++
			}
		}
		if score.Date != nil {
			accum.dateCount++
			accum.dateErrSum += float64(score.Date.AbsDays)
		}

		if !score.Present || score.Score < 0.5 {
			a.errors[path] = append(a.errors[path], models.ErrorExample{
				Sample: result.SampleID,
				Truth:  score.Truth,
				Value:  score.Value,
				Score:  score.Score,
			})
		}
	}
	if scoreCount > 0 {
		a.accuracies = append(a.accuracies, scoreSum/float64(scoreCount))
	}

	if eval.Items.Skipped {
		return
	}
	a.itemSamples++
	a.itemTruth += eval.Items.TruthCount
	a.itemPred += eval.Items.PredCount
	a.itemMatched += eval.Items.Matched
	for path, tally := range eval.Items.FieldTallies {
		current := a.itemTallies[path]
		current.Correct += tally.Correct
		current.Total += tally.Total
		a.itemTallies[path] = current
	}
}

func (a *aggregator) finalize(worstN int) models.AggregateSummary {
	fields := make(map[string]models.FieldAggregate, len(a.fields))
	var exactRates, normRates, tokenF1s, charSims []float64

	for path, accum := range a.fields {
		agg := models.FieldAggregate{Label: accum.label, Type: accum.ftype, Count: accum.count}
		if accum.count > 0 {
			count := float64(accum.count)
			agg.PresentRate = ptr(float64(accum.present) / count)
			agg.ExactRate = ptr(float64(accum.exact) / count)
			agg.NormalizedRate = ptr(float64(accum.normalized) / count)
			agg.TokenF1 = ptr(accum.tokenF1Sum / count)
			agg.Jaccard = ptr(accum.jaccardSum / count)
			agg.CharSimilarity = ptr(accum.charSimSum / count)
			if accum.numericCount > 0 {
				numCount := float64(accum.numericCount)
				agg.NumericMAE = ptr(accum.absErrSum / numCount)
				agg.NumericMAPE = ptr(accum.relErrSum / numCount)
				agg.NumericWithinTol = ptr(float64(accum.withinTol) / numCount)
			}
			if accum.dateCount > 0 {
				agg.DateMAEDays = ptr(accum.dateErrSum / float64(accum.dateCount))
			}
			exactRates = append(exactRates, *agg.ExactRate)
			normRates = append(normRates, *agg.NormalizedRate)
			tokenF1s = append(tokenF1s, *agg.TokenF1)
			charSims = append(charSims, *agg.CharSimilarity)
		}
		fields[path] = agg
	}

	overall := models.OverallSummary{
		SampleCount:     a.scored + a.skipped + a.failed,
		Scored:          a.scored,
		Skipped:         a.skipped,
		Failed:          a.failed,
		ExactMacro:      metrics.MeanPtr(exactRates),
		NormalizedMacro: metrics.MeanPtr(normRates),
		TokenF1Macro:    metrics.MeanPtr(tokenF1s),
		CharSimMacro:    metrics.MeanPtr(charSims),
	}

	if len(a.accuracies) > 0 {
		overall.AccuracyMean = ptr(metrics.Mean(a.accuracies))
		overall.AccuracyMedian = ptr(metrics.Median(a.accuracies))
		overall.AccuracyStdDev = ptr(metrics.StdDev(a.accuracies))
		low, high := metrics.ConfidenceInterval95(a.accuracies)
		overall.AccuracyCILow = ptr(low)
		overall.AccuracyCIHigh = ptr(high)
	}

	if a.itemSamples > 0 {
		precision := metrics.Ratio(a.itemMatched, a.itemPred)
		recall := metrics.Ratio(a.itemMatched, a.itemTruth)
		overall.ItemPrecision = ptr(precision)
		overall.ItemRecall = ptr(recall)
		overall.ItemF1 = ptr(metrics.F1(precision, recall))
		accuracy := make(map[string]float64, len(a.itemTallies))
		for path, tally := range a.itemTallies {
			accuracy[path] = tally.Rate()
		}
		overall.ItemFieldAccuracy = accuracy
	}

	errors := make(map[string][]models.ErrorExample, len(a.errors))
	for path, examples := range a.errors {
		sorted := make([]models.ErrorExample, len(examples))
		copy(sorted, examples)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score < sorted[j].Score })
		if worstN > 0 && len(sorted) > worstN {
			sorted = sorted[:worstN]
		}
		errors[path] = sorted
	}

	return models.AggregateSummary{
		Key:     a.key,
		Overall: overall,
		Fields:  fields,
		Errors:  errors,
	}
}

func ptr(v float64) *float64 { return &v }
