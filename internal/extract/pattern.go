package extract

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/JakubGal/invoice-eval/internal/invoice"
	"github.com/JakubGal/invoice-eval/internal/scoring"
)

var (
	ibanRe      = regexp.MustCompile(`\b[A-Z]{2}\d{2}[A-Z0-9]{10,30}\b`)
	emailRe     = regexp.MustCompile(`(?i)[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}`)
	phoneRe     = regexp.MustCompile(`\+?\d[\d\s().-]{6,}\d`)
	phoneSepRe  = regexp.MustCompile(`[+\s().-]`)
	digitRe     = regexp.MustCompile(`\d`)
	anyDateRe   = regexp.MustCompile(`\d{4}[-/]\d{2}[-/]\d{2}|\d{1,2}[./-]\d{1,2}[./-]\d{4}`)
	invoiceNoRe = regexp.MustCompile(`\b[A-Z0-9][A-Z0-9-]{5,}\b`)
)

// patternMethod runs the label matcher first, then fills gaps with
// structural patterns (IBANs, emails, phone numbers, dates, invoice
// number shapes) found anywhere in the text.
type patternMethod struct{}

func (m *patternMethod) Kind() Kind { return KindPattern }

func (m *patternMethod) Extract(_ context.Context, in Input) (invoice.Document, error) {
	return patternExtract(in.Lines), nil
}

func patternExtract(lines []string) invoice.Document {
	result := regexExtract(lines)
	blob := strings.Join(lines, " ")

	if invoice.GetString(result, "payment.iban") == "" {
		if iban := ibanRe.FindString(blob); iban != "" {
			invoice.Set(result, "payment.iban", iban)
		}
	}

	emails := emailRe.FindAllString(blob, -1)
	if len(emails) > 0 && invoice.GetString(result, "seller.email") == "" {
		invoice.Set(result, "seller.email", emails[0])
	}
	if len(emails) > 1 && invoice.GetString(result, "client.email") == "" {
		invoice.Set(result, "client.email", emails[1])
	}

	var phones []string
	for _, phone := range phoneRe.FindAllString(blob, -1) {
		if len(digitRe.FindAllString(phone, -1)) < 7 {
			continue
		}
		if !phoneSepRe.MatchString(phone) {
			continue
		}
		phones = append(phones, strings.TrimSpace(phone))
	}
	if len(phones) > 0 && invoice.GetString(result, "seller.contact") == "" {
		invoice.Set(result, "seller.contact", phones[0])
	}
	if len(phones) > 1 && invoice.GetString(result, "client.contact") == "" {
		invoice.Set(result, "client.contact", phones[1])
	}

	type datedValue struct {
		when time.Time
		raw  string
	}
	var dates []datedValue
	for _, raw := range anyDateRe.FindAllString(blob, -1) {
		if when, ok := scoring.ParseDate(raw); ok {
			dates = append(dates, datedValue{when, raw})
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].when.Before(dates[j].when) })
	if len(dates) > 0 && invoice.GetString(result, "invoice.date") == "" {
		invoice.Set(result, "invoice.date", dates[0].raw)
	}
	if len(dates) > 1 && invoice.GetString(result, "invoice.due_date") == "" {
		invoice.Set(result, "invoice.due_date", dates[len(dates)-1].raw)
	}

	if invoice.GetString(result, "invoice.number") == "" {
		for _, token := range invoiceNoRe.FindAllString(strings.ToUpper(blob), -1) {
			if hasInvoicePrefix(token) {
				invoice.Set(result, "invoice.number", token)
				break
			}
		}
	}

	if len(invoice.Items(result)) == 0 {
		if items := itemsFromLines(lines); len(items) > 0 {
			invoice.Set(result, "items", items)
		}
	}
	return result
}

func hasInvoicePrefix(token string) bool {
	for _, prefix := range []string{"INV", "RE", "FAK", "DE-", "CZ-", "SK-"} {
		if strings.HasPrefix(token, prefix) {
			return true
		}
	}
	return strings.Contains(token, "INV")
}
