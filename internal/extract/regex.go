package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/JakubGal/invoice-eval/internal/invoice"
)

var amountRe = regexp.MustCompile(`[0-9]+(?:[.,][0-9]{2})?`)

// regexMethod matches field labels line by line and takes the value
// after the colon, after the label, or on the following line.
type regexMethod struct{}

func (m *regexMethod) Kind() Kind { return KindRegex }

func (m *regexMethod) Extract(_ context.Context, in Input) (invoice.Document, error) {
	return regexExtract(in.Lines), nil
}

func regexExtract(lines []string) invoice.Document {
	result := invoice.NewDocument()

	for _, spec := range invoice.Fields {
		value := labelValue(lines, invoice.Labels[spec.Path])
		if spec.Path == "notes" && value == "" {
			for _, line := range lines {
				if strings.Contains(strings.ToLower(line), "note") {
					value = line
					break
				}
			}
		}
		if value != "" {
			invoice.Set(result, spec.Path, value)
		}
	}

	// Totals often carry currency noise; retry with a bare amount match.
	for _, path := range []string{"totals.subtotal", "totals.tax", "totals.due"} {
		if invoice.GetString(result, path) != "" {
			continue
		}
		value := labelValue(lines, invoice.Labels[path])
		if value == "" {
			continue
		}
		if amount := amountRe.FindString(value); amount != "" {
			invoice.Set(result, path, amount)
		}
	}

	if len(invoice.Items(result)) == 0 {
		if items := itemsFromLines(lines); len(items) > 0 {
			invoice.Set(result, "items", items)
		}
	}
	return result
}
