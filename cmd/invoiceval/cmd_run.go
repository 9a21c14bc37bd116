package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JakubGal/invoice-eval/internal/cache"
	"github.com/JakubGal/invoice-eval/internal/llm"
	"github.com/JakubGal/invoice-eval/internal/models"
	"github.com/JakubGal/invoice-eval/internal/orchestration"
	"github.com/JakubGal/invoice-eval/internal/reporting"
)

var (
	outputPath     string
	junitPath      string
	csvPath        string
	verbose        bool
	workers        int
	sampleLimit    int
	visibleOnly    bool
	sampleFilters  []string
	modelOverrides []string
	sourceOverride []string
	methodOverride []string
	enableCache    bool
	runCacheDir    string
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <run.yaml>",
		Short: "Run an extraction evaluation",
		Long: `Run an extraction evaluation from a run spec file.

The spec names the dataset directory and the sources, methods, and
models to cross. Flags override individual spec settings.`,
		Args: cobra.ExactArgs(1),
		RunE: runCommandE,
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output JSON file for the full report")
	cmd.Flags().StringVar(&junitPath, "junit", "", "Also write a JUnit XML report to this path")
	cmd.Flags().StringVar(&csvPath, "csv", "", "Also write per-result rows as CSV to this path")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output with per-combination progress")
	cmd.Flags().IntVar(&workers, "workers", 0, "Number of concurrent samples (overrides spec)")
	cmd.Flags().IntVar(&sampleLimit, "limit", 0, "Evaluate at most this many samples (overrides spec)")
	cmd.Flags().BoolVar(&visibleOnly, "visible-only", false, "Score only fields the sample's template renders")
	cmd.Flags().StringArrayVar(&sampleFilters, "sample", nil, "Filter samples by ID glob pattern (can be repeated)")
	cmd.Flags().StringArrayVar(&modelOverrides, "model", nil, "Model to evaluate (overrides spec, can be repeated)")
	cmd.Flags().StringArrayVar(&sourceOverride, "source", nil, "Text source to use (overrides spec, can be repeated)")
	cmd.Flags().StringArrayVar(&methodOverride, "method", nil, "Extraction method to run (overrides spec, can be repeated)")
	cmd.Flags().BoolVar(&enableCache, "cache", false, "Cache model completions on disk (default: false)")
	cmd.Flags().StringVar(&runCacheDir, "cache-dir", ".invoiceval-cache", "Cache directory for model completions")

	return cmd
}

func runCommandE(cmd *cobra.Command, args []string) error {
	spec, err := models.LoadRunSpec(args[0])
	if err != nil {
		return fmt.Errorf("failed to load run spec: %w", err)
	}

	// CLI flags override spec config
	if workers > 0 {
		spec.Config.Workers = workers
	}
	if sampleLimit > 0 {
		spec.Config.SampleLimit = sampleLimit
	}
	if visibleOnly {
		spec.Config.VisibleOnly = true
	}
	if len(modelOverrides) > 0 {
		spec.Config.Models = modelOverrides
	}
	if len(sourceOverride) > 0 {
		spec.Config.Sources = sourceOverride
	}
	if len(methodOverride) > 0 {
		spec.Config.Methods = methodOverride
	}
	if err := spec.Validate(); err != nil {
		return err
	}

	// Interrupt stops new combinations; completed results still report.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []orchestration.RunnerOption{orchestration.WithSampleFilters(sampleFilters...)}
	if enableCache {
		opts = append(opts, orchestration.WithCompleter(
			cache.Wrap(llm.NewRouter(spec.LLM), cache.New(runCacheDir))))
	}

	runner := orchestration.NewRunner(spec, opts...)
	runner.OnProgress(newConsoleReporter(verbose).handle)

	outcome, runErr := runner.Run(ctx)
	if outcome == nil {
		return runErr
	}

	fmt.Println(reporting.FormatSummary(outcome))

	if outputPath != "" {
		if err := reporting.WriteJSON(outcome, outputPath); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
		fmt.Printf("Report saved to: %s\n", outputPath)
	}
	if junitPath != "" {
		if err := reporting.WriteJUnitXML(outcome, junitPath); err != nil {
			return fmt.Errorf("failed to save JUnit report: %w", err)
		}
	}
	if csvPath != "" {
		if err := reporting.WriteCSV(outcome, csvPath); err != nil {
			return fmt.Errorf("failed to save CSV report: %w", err)
		}
	}

	if runErr != nil {
		return runErr
	}
	if outcome.Digest.Failed > 0 {
		return &ExtractionFailureError{
			Message: fmt.Sprintf("%d of %d combinations failed", outcome.Digest.Failed, outcome.Digest.Combinations),
		}
	}
	return nil
}
