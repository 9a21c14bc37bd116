package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakubGal/invoice-eval/internal/reporting"
)

var (
	reportJUnitPath string
	reportCSVPath   string
	reportSeries    bool
)

func newReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <run.json>",
		Short: "Render a saved report without re-running",
		Long: `Render a previously saved JSON report as markdown, chart series,
or JUnit XML, without re-running the evaluation.`,
		Args: cobra.ExactArgs(1),
		RunE: reportCommandE,
	}

	cmd.Flags().StringVar(&reportJUnitPath, "junit", "", "Write a JUnit XML report to this path")
	cmd.Flags().StringVar(&reportCSVPath, "csv", "", "Write per-result rows as CSV to this path")
	cmd.Flags().BoolVar(&reportSeries, "series", false, "Print chart series as JSON instead of markdown")

	return cmd
}

func reportCommandE(_ *cobra.Command, args []string) error {
	outcome, err := reporting.LoadOutcome(args[0])
	if err != nil {
		return err
	}

	if reportJUnitPath != "" {
		if err := reporting.WriteJUnitXML(outcome, reportJUnitPath); err != nil {
			return fmt.Errorf("failed to save JUnit report: %w", err)
		}
	}
	if reportCSVPath != "" {
		if err := reporting.WriteCSV(outcome, reportCSVPath); err != nil {
			return fmt.Errorf("failed to save CSV report: %w", err)
		}
	}

	if reportSeries {
		data, err := json.MarshalIndent(reporting.BuildSeries(outcome), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Println(reporting.FormatSummary(outcome))
	return nil
}
