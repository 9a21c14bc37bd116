package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakubGal/invoice-eval/internal/llm"
	"github.com/JakubGal/invoice-eval/internal/models"
	"github.com/JakubGal/invoice-eval/internal/textsource"
)

// fakeSource serves fixed lines as tokens and counts how often each
// sample's text is fetched.
type fakeSource struct {
	kind      textsource.Kind
	lines     []string
	probeErr  error
	tokensErr error

	calls atomic.Int64
}

func (f *fakeSource) Kind() textsource.Kind { return f.kind }

func (f *fakeSource) Probe() error { return f.probeErr }

func (f *fakeSource) Tokens(ctx context.Context, sample *models.Sample) ([]models.TextToken, error) {
	f.calls.Add(1)
	if f.tokensErr != nil {
		return nil, f.tokensErr
	}
	tokens := make([]models.TextToken, len(f.lines))
	for i, line := range f.lines {
		tokens[i] = models.TextToken{Text: line, Page: 1, X: 10, Y: float64(i) * 20}
	}
	return tokens, nil
}

type stubCompleter struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
}

func (s *stubCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func testSample(id string) *models.Sample {
	return &models.Sample{
		ID: id,
		Data: map[string]any{
			"invoice": map[string]any{"number": "INV-100200", "date": "2024-03-01"},
			"seller":  map[string]any{"name": "Acme GmbH"},
			"client":  map[string]any{"name": "Beta s.r.o."},
			"payment": map[string]any{},
			"totals":  map[string]any{},
			"items": []any{
				map[string]any{"description": "Widget assembly", "qty": 2.0, "unit_price": 10.0, "line_total": 20.0},
			},
		},
		ItemsVisible: true,
	}
}

func sampleText() []string {
	return []string{
		"Invoice number: INV-100200",
		"Invoice date: 2024-03-01",
		"Seller",
		"name",
		"Acme GmbH",
		"Client",
		"name",
		"Beta s.r.o.",
	}
}

func testSpec(methods []string, sources []string, llmModels []string) *models.RunSpec {
	spec := &models.RunSpec{
		Name:       "unit",
		DatasetDir: "unused",
		Config: models.RunConfig{
			Sources: sources,
			Methods: methods,
			Models:  llmModels,
		},
	}
	spec.Normalize()
	return spec
}

func TestRunnerHeuristicGrid(t *testing.T) {
	source := &fakeSource{kind: textsource.KindPDFText, lines: sampleText()}
	runner := NewRunner(
		testSpec([]string{"regex", "kv"}, []string{"pdf-text"}, nil),
		WithSamples(testSample("inv-001"), testSample("inv-002")),
		WithSources(map[textsource.Kind]textsource.Source{textsource.KindPDFText: source}),
	)

	outcome, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.Digest.Samples)
	assert.Equal(t, 4, outcome.Digest.Combinations)
	assert.Equal(t, 4, outcome.Digest.Scored)
	assert.Zero(t, outcome.Digest.Skipped)
	assert.Zero(t, outcome.Digest.Failed)
	assert.NotEmpty(t, outcome.RunID)
	assert.Len(t, outcome.Results, 4)
	assert.Len(t, outcome.Summaries, 2)

	summary, ok := outcome.SummaryFor(models.GroupKey{Method: "regex", Source: "pdf-text"})
	require.True(t, ok)
	assert.Equal(t, 2, summary.Overall.Scored)
	number := summary.Fields["invoice.number"]
	require.NotNil(t, number.ExactRate)
	assert.InDelta(t, 1.0, *number.ExactRate, 1e-9)
}

func TestRunnerFetchesTextOncePerSample(t *testing.T) {
	source := &fakeSource{kind: textsource.KindPDFText, lines: sampleText()}
	runner := NewRunner(
		testSpec([]string{"regex", "kv", "pattern", "ensemble"}, []string{"pdf-text"}, nil),
		WithSamples(testSample("inv-001")),
		WithSources(map[textsource.Kind]textsource.Source{textsource.KindPDFText: source}),
	)

	_, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), source.calls.Load())
}

func TestRunnerSkipsUnavailableSource(t *testing.T) {
	broken := &fakeSource{
		kind:      textsource.KindTesseract,
		tokensErr: fmt.Errorf("tesseract binary not on PATH: %w", textsource.ErrUnavailable),
	}
	working := &fakeSource{kind: textsource.KindPDFText, lines: sampleText()}
	runner := NewRunner(
		testSpec([]string{"regex"}, []string{"pdf-text", "tesseract"}, nil),
		WithSamples(testSample("inv-001")),
		WithSources(map[textsource.Kind]textsource.Source{
			textsource.KindPDFText:   working,
			textsource.KindTesseract: broken,
		}),
	)

	outcome, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Digest.Scored)
	assert.Equal(t, 1, outcome.Digest.Skipped)

	summary, ok := outcome.SummaryFor(models.GroupKey{Method: "regex", Source: "tesseract"})
	require.True(t, ok)
	assert.Zero(t, summary.Overall.Scored)
	assert.Equal(t, 1, summary.Overall.Skipped)
	assert.Nil(t, summary.Overall.ExactMacro)

	for _, result := range outcome.Results {
		if result.Source == "tesseract" {
			assert.Equal(t, models.StatusSkipped, result.Status)
			assert.Contains(t, result.SkipReason, "tesseract")
		}
	}
}

func TestRunnerLLMFailureDoesNotStopRun(t *testing.T) {
	source := &fakeSource{kind: textsource.KindPDFText, lines: sampleText()}
	client := &stubCompleter{err: &llm.Failure{
		Kind:    llm.FailureRateLimited,
		Model:   "gpt-4o",
		Message: "quota exceeded",
	}}
	runner := NewRunner(
		testSpec([]string{"regex", "llm-text"}, []string{"pdf-text"}, []string{"gpt-4o"}),
		WithSamples(testSample("inv-001")),
		WithSources(map[textsource.Kind]textsource.Source{textsource.KindPDFText: source}),
		WithCompleter(client),
	)

	outcome, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Digest.Scored)
	assert.Equal(t, 1, outcome.Digest.Failed)

	var failed *models.ExtractionResult
	for i := range outcome.Results {
		if outcome.Results[i].Status == models.StatusFailed {
			failed = &outcome.Results[i]
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, "llm-text", failed.Method)
	assert.Equal(t, "gpt-4o", failed.Model)
	assert.Equal(t, string(llm.FailureRateLimited), failed.FailureKind)
	assert.Contains(t, failed.ErrorMsg, "quota exceeded")
}

func TestRunnerScoresLLMText(t *testing.T) {
	source := &fakeSource{kind: textsource.KindPDFText, lines: sampleText()}
	client := &stubCompleter{response: `{"invoice": {"number": "INV-100200"}}`}
	runner := NewRunner(
		testSpec([]string{"llm-text"}, []string{"pdf-text"}, []string{"gpt-4o"}),
		WithSamples(testSample("inv-001")),
		WithSources(map[textsource.Kind]textsource.Source{textsource.KindPDFText: source}),
		WithCompleter(client),
	)

	outcome, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, outcome.Results, 1)

	result := outcome.Results[0]
	assert.Equal(t, models.StatusScored, result.Status)
	require.NotNil(t, result.Evaluation)
	assert.True(t, result.Evaluation.Fields["invoice.number"].Exact)
	assert.Equal(t, 1, client.calls)
}

func TestRunnerVisionWithoutImagesSkips(t *testing.T) {
	client := &stubCompleter{response: `{}`}
	runner := NewRunner(
		testSpec([]string{"llm-vision"}, []string{"pdf-text"}, []string{"gpt-4o"}),
		WithSamples(testSample("inv-001")),
		WithSources(map[textsource.Kind]textsource.Source{}),
		WithCompleter(client),
	)

	outcome, err := runner.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, outcome.Results, 1)
	result := outcome.Results[0]
	assert.Equal(t, models.StatusSkipped, result.Status)
	assert.Contains(t, result.SkipReason, "page images")
	assert.Empty(t, result.Source)
	assert.Equal(t, 0, client.calls)
}

func TestRunnerVisionGroupsByModelOnly(t *testing.T) {
	runner := NewRunner(testSpec([]string{"llm-vision"}, []string{"pdf-text", "ocr-json"}, []string{"gpt-4o", "claude-sonnet-4-5"}))

	combos, err := runner.buildCombos()
	require.NoError(t, err)
	require.Len(t, combos, 2)
	assert.Equal(t, models.GroupKey{Method: "llm-vision", Model: "gpt-4o"}, combos[0].group)
	assert.Equal(t, models.GroupKey{Method: "llm-vision", Model: "claude-sonnet-4-5"}, combos[1].group)
}

func TestRunnerCancelledContext(t *testing.T) {
	source := &fakeSource{kind: textsource.KindPDFText, lines: sampleText()}
	runner := NewRunner(
		testSpec([]string{"regex"}, []string{"pdf-text"}, nil),
		WithSamples(testSample("inv-001"), testSample("inv-002")),
		WithSources(map[textsource.Kind]textsource.Source{textsource.KindPDFText: source}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := runner.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, outcome.Results)
	assert.Zero(t, outcome.Digest.Scored)
	assert.Len(t, outcome.Summaries, 1)
}

func TestRunnerEmitsProgressEvents(t *testing.T) {
	source := &fakeSource{kind: textsource.KindPDFText, lines: sampleText()}
	runner := NewRunner(
		testSpec([]string{"regex"}, []string{"pdf-text"}, nil),
		WithSamples(testSample("inv-001")),
		WithSources(map[textsource.Kind]textsource.Source{textsource.KindPDFText: source}),
	)

	var mu sync.Mutex
	seen := map[EventType]int{}
	runner.OnProgress(func(event ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		seen[event.EventType]++
	})

	_, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, seen[EventRunStart])
	assert.Equal(t, 1, seen[EventRunComplete])
	assert.Equal(t, 1, seen[EventSampleStart])
	assert.Equal(t, 1, seen[EventResult])
}

func TestRunnerNoSamples(t *testing.T) {
	runner := NewRunner(
		testSpec([]string{"regex"}, []string{"pdf-text"}, nil),
		WithSamples(testSample("inv-001")),
		WithSources(map[textsource.Kind]textsource.Source{}),
		WithSampleFilters("does-not-match-*"),
	)

	_, err := runner.Run(context.Background())
	assert.Error(t, err)
}

func TestRunnerVisibleOnlyScoring(t *testing.T) {
	sample := testSample("inv-001")
	sample.VisiblePaths = map[string]bool{"invoice.number": true}
	sample.ItemsVisible = false

	source := &fakeSource{kind: textsource.KindPDFText, lines: sampleText()}
	spec := testSpec([]string{"regex"}, []string{"pdf-text"}, nil)
	spec.Config.VisibleOnly = true
	runner := NewRunner(spec,
		WithSamples(sample),
		WithSources(map[textsource.Kind]textsource.Source{textsource.KindPDFText: source}),
	)

	outcome, err := runner.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, outcome.Results, 1)
	eval := outcome.Results[0].Evaluation
	require.NotNil(t, eval)
	assert.Len(t, eval.Fields, 1)
	assert.Contains(t, eval.Fields, "invoice.number")
	assert.True(t, eval.Items.Skipped)
}

func TestFilterSamples(t *testing.T) {
	samples := []*models.Sample{testSample("inv-001"), testSample("inv-002"), testSample("quote-001")}

	all, err := FilterSamples(samples, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	invoices, err := FilterSamples(samples, []string{"inv-*"})
	require.NoError(t, err)
	require.Len(t, invoices, 2)
	assert.Equal(t, "inv-001", invoices[0].ID)

	one, err := FilterSamples(samples, []string{"inv-002", "quote-*"})
	require.NoError(t, err)
	assert.Len(t, one, 2)

	_, err = FilterSamples(samples, []string{"[bad"})
	assert.Error(t, err)
}

func TestTokenCacheRemembersErrors(t *testing.T) {
	source := &fakeSource{
		kind:      textsource.KindEasyOCR,
		tokensErr: errors.New("boom"),
	}
	cache := newTokenCache(testSample("inv-001"), map[textsource.Kind]textsource.Source{
		textsource.KindEasyOCR: source,
	})

	_, err := cache.lines(context.Background(), textsource.KindEasyOCR)
	require.Error(t, err)
	_, err = cache.lines(context.Background(), textsource.KindEasyOCR)
	require.Error(t, err)
	assert.Equal(t, int64(1), source.calls.Load())
}

func TestRunnerDatasetLoadFailure(t *testing.T) {
	spec := testSpec([]string{"regex"}, []string{"pdf-text"}, nil)
	spec.DatasetDir = "testdata/does-not-exist"

	runner := NewRunner(spec)
	outcome, err := runner.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading dataset")

	// The outcome still reports: zero results, load error as a skip note.
	require.NotNil(t, outcome)
	assert.Equal(t, 0, outcome.Digest.Samples)
	assert.Empty(t, outcome.Results)
	assert.Empty(t, outcome.Summaries)
	require.Len(t, outcome.SkipNotes, 1)
	assert.Contains(t, outcome.SkipNotes[0], "loading dataset")
}
