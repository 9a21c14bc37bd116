package reporting

import (
	"encoding/xml"
	"fmt"
	"os"
	"time"

	"github.com/JakubGal/invoice-eval/internal/models"
)

// JUnit XML schema types

// JUnitTestSuites is the top-level container.
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Time       float64          `xml:"time,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite maps to one evaluation group.
type JUnitTestSuite struct {
	XMLName    xml.Name        `xml:"testsuite"`
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Errors     int             `xml:"errors,attr"`
	Skipped    int             `xml:"skipped,attr"`
	Time       float64         `xml:"time,attr"`
	Timestamp  string          `xml:"timestamp,attr"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	TestCases  []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase maps to one (sample, combination) extraction.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Error     *JUnitError   `xml:"error,omitempty"`
	Skipped   *JUnitSkipped `xml:"skipped,omitempty"`
}

// JUnitError represents an extraction that failed at runtime.
type JUnitError struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
}

// JUnitSkipped marks a combination whose engine or inputs were absent.
type JUnitSkipped struct {
	Message string `xml:"message,attr,omitempty"`
}

// JUnitProperty is a key-value metadata entry.
type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// ConvertToJUnit maps a run outcome onto JUnit XML: one suite per group,
// one testcase per extraction. Low scores are not failures; only runtime
// errors are.
func ConvertToJUnit(outcome *models.RunOutcome) *JUnitTestSuites {
	byGroup := make(map[models.GroupKey][]models.ExtractionResult)
	var order []models.GroupKey
	for _, result := range outcome.Results {
		key := models.GroupKey{Method: result.Method, Source: result.Source, Model: result.Model}
		if _, ok := byGroup[key]; !ok {
			order = append(order, key)
		}
		byGroup[key] = append(byGroup[key], result)
	}

	suites := &JUnitTestSuites{
		Tests:  len(outcome.Results),
		Errors: outcome.Digest.Failed,
		Time:   float64(outcome.Digest.DurationMs) / 1000.0,
	}

	for _, key := range order {
		suite := JUnitTestSuite{
			Name:      key.String(),
			Tests:     len(byGroup[key]),
			Timestamp: outcome.Timestamp.Format(time.RFC3339),
			Properties: []JUnitProperty{
				{Name: "run_id", Value: outcome.RunID},
				{Name: "dataset", Value: outcome.Setup.DatasetDir},
			},
		}
		if summary, ok := outcome.SummaryFor(key); ok && summary.Overall.TokenF1Macro != nil {
			suite.Properties = append(suite.Properties, JUnitProperty{
				Name:  "token_f1_macro",
				Value: fmt.Sprintf("%.4f", *summary.Overall.TokenF1Macro),
			})
		}

		for _, result := range byGroup[key] {
			tc := JUnitTestCase{
				Name:      result.SampleID,
				Classname: key.String(),
				Time:      float64(result.ElapsedMs) / 1000.0,
			}
			switch result.Status {
			case models.StatusSkipped:
				tc.Skipped = &JUnitSkipped{Message: result.SkipReason}
				suite.Skipped++
			case models.StatusFailed:
				errType := result.FailureKind
				if errType == "" {
					errType = "ExtractionError"
				}
				tc.Error = &JUnitError{Message: result.ErrorMsg, Type: errType}
				suite.Errors++
			}
			suite.TestCases = append(suite.TestCases, tc)
		}
		suites.TestSuites = append(suites.TestSuites, suite)
	}

	return suites
}

// WriteJUnitXML writes JUnit XML to the specified file path.
func WriteJUnitXML(outcome *models.RunOutcome, path string) error {
	suites := ConvertToJUnit(outcome)

	data, err := xml.MarshalIndent(suites, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JUnit XML: %w", err)
	}

	output := append([]byte(xml.Header), data...)
	return os.WriteFile(path, output, 0644)
}
