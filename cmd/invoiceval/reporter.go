package main

import (
	"fmt"
	"time"

	"github.com/JakubGal/invoice-eval/internal/models"
	"github.com/JakubGal/invoice-eval/internal/orchestration"
)

// formatDuration formats a duration in a consistent, human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(10 * time.Millisecond).String()
}

// consoleReporter prints run progress to stdout. Non-verbose mode shows
// only run boundaries and engine skips.
type consoleReporter struct {
	verbose bool
}

func newConsoleReporter(verbose bool) *consoleReporter {
	return &consoleReporter{verbose: verbose}
}

func (r *consoleReporter) handle(event orchestration.ProgressEvent) {
	switch event.EventType {
	case orchestration.EventRunStart:
		fmt.Printf("Evaluating %d samples (%v combinations)\n",
			event.TotalSamples, event.Details["combinations"])
	case orchestration.EventSourceSkipped:
		fmt.Printf("  engine unavailable: %v\n", event.Details["reason"])
	case orchestration.EventSampleStart:
		if r.verbose {
			fmt.Printf("[%d/%d] %s\n", event.SampleNum, event.TotalSamples, event.SampleID)
		}
	case orchestration.EventResult:
		if r.verbose {
			icon := statusIcon(event.Status)
			fmt.Printf("  %s %s %s (%s)\n", icon, event.SampleID, event.Group,
				formatDuration(time.Duration(event.DurationMs)*time.Millisecond))
		}
	case orchestration.EventRunComplete:
		fmt.Printf("Done in %s\n\n", formatDuration(time.Duration(event.DurationMs)*time.Millisecond))
	}
}

func statusIcon(status models.ResultStatus) string {
	switch status {
	case models.StatusScored:
		return "✓"
	case models.StatusSkipped:
		return "-"
	default:
		return "✗"
	}
}
