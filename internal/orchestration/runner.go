package orchestration

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JakubGal/invoice-eval/internal/dataset"
	"github.com/JakubGal/invoice-eval/internal/extract"
	"github.com/JakubGal/invoice-eval/internal/llm"
	"github.com/JakubGal/invoice-eval/internal/models"
	"github.com/JakubGal/invoice-eval/internal/scoring"
	"github.com/JakubGal/invoice-eval/internal/textsource"
)

// Runner orchestrates the evaluation: every selected sample is run
// through every (source, method, model) combination, scored against
// ground truth, and rolled up per group.
type Runner struct {
	spec    *models.RunSpec
	client  extract.Completer
	scorer  *scoring.Scorer
	matcher *scoring.Matcher

	// Injected in tests; nil means the real loaders are used.
	samples []*models.Sample
	sources map[textsource.Kind]textsource.Source

	sampleFilters []string

	// Progress tracking
	progressMu sync.Mutex
	listeners  []ProgressListener
}

// ProgressListener receives progress updates
type ProgressListener func(event ProgressEvent)

// EventType represents the type of progress event
type EventType string

const (
	EventRunStart      EventType = "run_start"
	EventRunComplete   EventType = "run_complete"
	EventSourceSkipped EventType = "source_skipped"
	EventSampleStart   EventType = "sample_start"
	EventResult        EventType = "result"
)

// ProgressEvent represents a progress update
type ProgressEvent struct {
	EventType    EventType
	SampleID     string
	SampleNum    int
	TotalSamples int
	Group        string
	Status       models.ResultStatus
	DurationMs   int64
	Details      map[string]any
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithSamples bypasses dataset loading and evaluates the given samples.
func WithSamples(samples ...*models.Sample) RunnerOption {
	return func(r *Runner) {
		r.samples = samples
	}
}

// WithSources overrides the text source registry.
func WithSources(sources map[textsource.Kind]textsource.Source) RunnerOption {
	return func(r *Runner) {
		r.sources = sources
	}
}

// WithSampleFilters restricts the run to samples whose ID matches one of
// the glob patterns.
func WithSampleFilters(patterns ...string) RunnerOption {
	return func(r *Runner) {
		r.sampleFilters = patterns
	}
}

// WithCompleter overrides the LLM client used by model-backed methods.
func WithCompleter(client extract.Completer) RunnerOption {
	return func(r *Runner) {
		r.client = client
	}
}

// NewRunner creates a runner for the given spec.
func NewRunner(spec *models.RunSpec, opts ...RunnerOption) *Runner {
	r := &Runner{
		spec: spec,
		scorer: &scoring.Scorer{
			AmountTolerance: spec.Config.AmountTolerance,
			NumberTolerance: spec.Config.NumberTolerance,
			TextThreshold:   spec.Config.TextThreshold,
		},
		matcher: &scoring.Matcher{
			Threshold:       spec.Config.ItemThreshold,
			AmountTolerance: spec.Config.AmountTolerance,
			NumberTolerance: spec.Config.NumberTolerance,
		},
		listeners: []ProgressListener{},
	}
	for _, o := range opts {
		o(r)
	}
	if r.client == nil {
		r.client = llm.NewRouter(spec.LLM)
	}
	return r
}

// OnProgress registers a progress listener
func (r *Runner) OnProgress(listener ProgressListener) {
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	r.listeners = append(r.listeners, listener)
}

func (r *Runner) notifyProgress(event ProgressEvent) {
	r.progressMu.Lock()
	listeners := make([]ProgressListener, len(r.listeners))
	copy(listeners, r.listeners)
	r.progressMu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// combo is one cell of the evaluation grid for a single sample.
type combo struct {
	group  models.GroupKey
	method extract.Method
	source textsource.Kind
	model  string
}

// Run executes the evaluation. Cancelling the context stops new
// combinations; results completed so far are aggregated and returned.
func (r *Runner) Run(ctx context.Context) (*models.RunOutcome, error) {
	startTime := time.Now()

	samples := r.samples
	if samples == nil {
		loaded, err := dataset.Load(r.spec.DatasetDir)
		if err != nil {
			// A report with zero results still gets written; the load
			// error rides along as a skip note.
			err = fmt.Errorf("loading dataset: %w", err)
			outcome := r.buildOutcome(nil, nil, nil, []string{err.Error()}, startTime)
			return outcome, err
		}
		samples = dataset.Select(loaded, r.spec.Config)
	}
	samples, err := FilterSamples(samples, r.sampleFilters)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples found in %s", r.spec.DatasetDir)
	}

	sources, skipNotes, err := r.buildSources()
	if err != nil {
		return nil, err
	}
	for _, note := range skipNotes {
		r.notifyProgress(ProgressEvent{
			EventType: EventSourceSkipped,
			Details:   map[string]any{"reason": note},
		})
	}

	combos, err := r.buildCombos()
	if err != nil {
		return nil, err
	}

	r.notifyProgress(ProgressEvent{
		EventType:    EventRunStart,
		TotalSamples: len(samples),
		Details:      map[string]any{"combinations": len(samples) * len(combos)},
	})

	results := r.runConcurrent(ctx, samples, sources, combos)

	outcome := r.buildOutcome(samples, combos, results, skipNotes, startTime)

	r.notifyProgress(ProgressEvent{
		EventType:  EventRunComplete,
		DurationMs: time.Since(startTime).Milliseconds(),
	})
	return outcome, nil
}

// buildSources instantiates and probes the configured text sources.
// Probe failures become skip notes; the source stays registered so its
// combinations surface as skipped results instead of vanishing.
func (r *Runner) buildSources() (map[textsource.Kind]textsource.Source, []string, error) {
	if r.sources != nil {
		return r.sources, nil, nil
	}
	sources := make(map[textsource.Kind]textsource.Source, len(r.spec.Config.Sources))
	var notes []string
	for _, name := range r.spec.Config.Sources {
		source, err := textsource.New(textsource.Kind(name))
		if err != nil {
			return nil, nil, err
		}
		if err := source.Probe(); err != nil {
			notes = append(notes, fmt.Sprintf("%s: %v", name, err))
		}
		sources[source.Kind()] = source
	}
	return sources, notes, nil
}

// buildCombos expands the configured methods into the evaluation grid.
// Heuristic methods fan out per source; text LLM methods per source and
// model; vision methods per model only.
func (r *Runner) buildCombos() ([]combo, error) {
	var combos []combo
	for _, name := range r.spec.Config.Methods {
		kind := extract.Kind(name)
		params := map[string]any{"max_tokens": r.spec.LLM.MaxTokens}
		method, err := extract.Create(kind, r.client, params)
		if err != nil {
			return nil, err
		}

		switch {
		case extract.IsVision(kind):
			for _, model := range r.spec.Config.Models {
				combos = append(combos, combo{
					group:  models.GroupKey{Method: name, Model: model},
					method: method,
					model:  model,
				})
			}
		case extract.IsLLM(kind):
			for _, sourceName := range r.spec.Config.Sources {
				for _, model := range r.spec.Config.Models {
					combos = append(combos, combo{
						group:  models.GroupKey{Method: name, Source: sourceName, Model: model},
						method: method,
						source: textsource.Kind(sourceName),
						model:  model,
					})
				}
			}
		default:
			for _, sourceName := range r.spec.Config.Sources {
				combos = append(combos, combo{
					group:  models.GroupKey{Method: name, Source: sourceName},
					method: method,
					source: textsource.Kind(sourceName),
				})
			}
		}
	}
	return combos, nil
}

func (r *Runner) runConcurrent(
	ctx context.Context,
	samples []*models.Sample,
	sources map[textsource.Kind]textsource.Source,
	combos []combo,
) []models.ExtractionResult {
	workers := r.spec.Config.Workers
	if workers <= 0 {
		workers = 4
	}

	bySample := make([][]models.ExtractionResult, len(samples))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, sample := range samples {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}

			r.notifyProgress(ProgressEvent{
				EventType:    EventSampleStart,
				SampleID:     sample.ID,
				SampleNum:    i + 1,
				TotalSamples: len(samples),
			})
			bySample[i] = r.runSample(ctx, sample, sources, combos)
			return nil
		})
	}
	g.Wait() //nolint:errcheck

	var results []models.ExtractionResult
	for _, sampleResults := range bySample {
		results = append(results, sampleResults...)
	}
	return results
}

// runSample evaluates every combination for one sample. Text tokens are
// fetched once per source and shared across methods.
func (r *Runner) runSample(
	ctx context.Context,
	sample *models.Sample,
	sources map[textsource.Kind]textsource.Source,
	combos []combo,
) []models.ExtractionResult {
	cache := newTokenCache(sample, sources)
	var images [][]byte
	imagesLoaded := false

	results := make([]models.ExtractionResult, 0, len(combos))
	for _, c := range combos {
		if ctx.Err() != nil {
			break
		}

		result := models.ExtractionResult{
			SampleID: sample.ID,
			Method:   c.group.Method,
			Source:   c.group.Source,
			Model:    c.group.Model,
		}
		start := time.Now()

		in := extract.Input{Sample: sample, Model: c.model}
		if extract.IsVision(extract.Kind(c.group.Method)) {
			if !imagesLoaded {
				images = loadImages(sample.ImagePaths)
				imagesLoaded = true
			}
			if len(images) == 0 {
				result.Status = models.StatusSkipped
				result.SkipReason = "no page images rendered for sample"
				results = append(results, r.emit(result, start))
				continue
			}
			in.Images = images
		} else {
			lines, err := cache.lines(ctx, c.source)
			if err != nil {
				if textsource.IsSkip(err) {
					result.Status = models.StatusSkipped
					result.SkipReason = err.Error()
				} else {
					result.Status = models.StatusFailed
					result.ErrorMsg = err.Error()
				}
				results = append(results, r.emit(result, start))
				continue
			}
			in.Lines = lines
		}

		doc, err := c.method.Extract(ctx, in)
		if err != nil {
			result.Status = models.StatusFailed
			result.ErrorMsg = err.Error()
			if failure, ok := llm.AsFailure(err); ok {
				result.FailureKind = string(failure.Kind)
			}
			results = append(results, r.emit(result, start))
			continue
		}

		result.Status = models.StatusScored
		result.Document = doc
		result.Evaluation = r.evaluate(sample, doc)
		results = append(results, r.emit(result, start))
	}
	return results
}

func (r *Runner) emit(result models.ExtractionResult, start time.Time) models.ExtractionResult {
	result.ElapsedMs = time.Since(start).Milliseconds()
	r.notifyProgress(ProgressEvent{
		EventType:  EventResult,
		SampleID:   result.SampleID,
		Group:      models.GroupKey{Method: result.Method, Source: result.Source, Model: result.Model}.String(),
		Status:     result.Status,
		DurationMs: result.ElapsedMs,
	})
	return result
}

func (r *Runner) evaluate(sample *models.Sample, doc map[string]any) *models.SampleEvaluation {
	var visible map[string]bool
	itemsVisible := true
	if r.spec.Config.VisibleOnly {
		visible = sample.VisiblePaths
		itemsVisible = sample.ItemsVisible
	}

	eval := &models.SampleEvaluation{
		Fields: r.scorer.ScoreFields(sample.Data, doc, visible),
	}
	if itemsVisible {
		eval.Items = r.matcher.Match(itemsOf(sample.Data), itemsOf(doc))
	} else {
		eval.Items = models.ItemMatch{Skipped: true}
	}
	return eval
}

func itemsOf(data map[string]any) []map[string]any {
	raw, ok := data["items"]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []map[string]any:
		return v
	case []any:
		items := make([]map[string]any, 0, len(v))
		for _, entry := range v {
			if item, ok := entry.(map[string]any); ok {
				items = append(items, item)
			}
		}
		return items
	default:
		return nil
	}
}

func loadImages(paths []string) [][]byte {
	var images [][]byte
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		images = append(images, data)
	}
	return images
}

func (r *Runner) buildOutcome(
	samples []*models.Sample,
	combos []combo,
	results []models.ExtractionResult,
	skipNotes []string,
	startTime time.Time,
) *models.RunOutcome {
	aggregators := make(map[models.GroupKey]*aggregator, len(combos))
	var order []models.GroupKey
	for _, c := range combos {
		if _, ok := aggregators[c.group]; !ok {
			aggregators[c.group] = newAggregator(c.group)
			order = append(order, c.group)
		}
	}

	digest := models.OutcomeDigest{
		Samples:      len(samples),
		Combinations: len(samples) * len(combos),
	}
	for i := range results {
		result := &results[i]
		switch result.Status {
		case models.StatusScored:
			digest.Scored++
		case models.StatusSkipped:
			digest.Skipped++
		case models.StatusFailed:
			digest.Failed++
		}
		if agg, ok := aggregators[models.GroupKey{Method: result.Method, Source: result.Source, Model: result.Model}]; ok {
			agg.add(result)
		}
	}
	digest.DurationMs = time.Since(startTime).Milliseconds()

	summaries := make([]models.AggregateSummary, 0, len(order))
	for _, key := range order {
		summaries = append(summaries, aggregators[key].finalize(r.spec.Config.WorstExamples))
	}

	return &models.RunOutcome{
		RunID:     uuid.NewString(),
		Name:      r.spec.Name,
		Timestamp: startTime,
		Setup: models.OutcomeSetup{
			DatasetDir:      r.spec.DatasetDir,
			Sources:         r.spec.Config.Sources,
			Methods:         r.spec.Config.Methods,
			Models:          r.spec.Config.Models,
			Workers:         r.spec.Config.Workers,
			SampleLimit:     r.spec.Config.SampleLimit,
			VisibleOnly:     r.spec.Config.VisibleOnly,
			AmountTolerance: r.spec.Config.AmountTolerance,
			NumberTolerance: r.spec.Config.NumberTolerance,
			TextThreshold:   r.spec.Config.TextThreshold,
			ItemThreshold:   r.spec.Config.ItemThreshold,
		},
		SkipNotes: skipNotes,
		Digest:    digest,
		Summaries: summaries,
		Results:   results,
	}
}

// tokenCache fetches text once per source for a sample and remembers
// the outcome, including skip errors.
type tokenCache struct {
	sample  *models.Sample
	sources map[textsource.Kind]textsource.Source

	mu      sync.Mutex
	lineSet map[textsource.Kind][]string
	errs    map[textsource.Kind]error
}

func newTokenCache(sample *models.Sample, sources map[textsource.Kind]textsource.Source) *tokenCache {
	return &tokenCache{
		sample:  sample,
		sources: sources,
		lineSet: make(map[textsource.Kind][]string),
		errs:    make(map[textsource.Kind]error),
	}
}

func (c *tokenCache) lines(ctx context.Context, kind textsource.Kind) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err, ok := c.errs[kind]; ok {
		return nil, err
	}
	if lines, ok := c.lineSet[kind]; ok {
		return lines, nil
	}

	source, ok := c.sources[kind]
	if !ok {
		err := fmt.Errorf("source %s not configured: %w", kind, textsource.ErrUnavailable)
		c.errs[kind] = err
		return nil, err
	}
	if err := source.Probe(); err != nil {
		c.errs[kind] = err
		return nil, err
	}

	tokens, err := source.Tokens(ctx, c.sample)
	if err != nil {
		c.errs[kind] = err
		return nil, err
	}
	lines := textsource.Lines(tokens)
	c.lineSet[kind] = lines
	return lines, nil
}
