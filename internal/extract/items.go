package extract

import (
	"strings"

	"github.com/JakubGal/invoice-eval/internal/invoice"
	"github.com/JakubGal/invoice-eval/internal/scoring"
)

var (
	itemDescHeaders = []string{
		"description", "item", "items", "article",
		"beschreibung", "artikel",
		"popis", "polozka", "položka",
		"商品", "描述", "品名",
	}
	itemQtyHeaders = []string{
		"qty", "quantity", "menge", "anzahl", "mnozstvi", "množství", "数量",
	}
	itemUnitHeaders = []string{
		"unit price", "unit", "einzelpreis", "preis",
		"jednotkova cena", "jednotková cena", "单价",
	}
	itemTotalHeaders = []string{
		"total", "amount", "betrag", "summe", "celkem", "金额", "总价", "合计",
	}
	sectionStopHeaders = []string{
		"invoice info", "invoice information", "payment information",
		"contact information", "seller", "client", "totals",
		"subtotal", "tax", "amount due",
		"发票信息", "联系方式", "付款信息", "小计", "税", "合计", "总计",
		"rechnungsinformationen", "zahlungsinformationen", "kontaktdaten",
		"zwischensumme", "umsatzsteuer", "gesamt",
		"faktura", "soucet", "součet", "celkem",
	}
)

func containsAny(norm string, keys []string) bool {
	for _, key := range keys {
		if strings.Contains(norm, key) {
			return true
		}
	}
	return false
}

// findItemTableStart scans for a window of lines that together contain
// a description, quantity, unit price and total header, and returns the
// index just past the last header hit.
func findItemTableStart(lines []string) (int, bool) {
	const window = 6
	for idx := range lines {
		end := idx
		var foundDesc, foundQty, foundUnit, foundTotal bool
		limit := idx + window
		if limit > len(lines) {
			limit = len(lines)
		}
		for pos := idx; pos < limit; pos++ {
			norm := invoice.NormalizeLabel(lines[pos])
			if containsAny(norm, itemDescHeaders) {
				foundDesc = true
				end = pos
			}
			if containsAny(norm, itemQtyHeaders) {
				foundQty = true
				end = pos
			}
			if containsAny(norm, itemUnitHeaders) {
				foundUnit = true
				end = pos
			}
			if containsAny(norm, itemTotalHeaders) {
				foundTotal = true
				end = pos
			}
		}
		if foundDesc && foundQty && foundUnit && foundTotal {
			return end + 1, true
		}
	}
	return 0, false
}

// itemsFromLines reads four-line records (description, qty, unit price,
// line total) after the table header, stopping at the next section.
func itemsFromLines(lines []string) []invoice.Document {
	start, ok := findItemTableStart(lines)
	if !ok {
		return nil
	}
	var items []invoice.Document
	idx := start
	for idx+3 < len(lines) {
		line := strings.TrimSpace(lines[idx])
		norm := invoice.NormalizeLabel(line)
		if containsAny(norm, sectionStopHeaders) {
			break
		}
		if containsAny(norm, itemDescHeaders) {
			idx++
			continue
		}
		if _, isNumber := scoring.ParseNumber(line); isNumber {
			idx++
			continue
		}
		qty, okQty := scoring.ParseNumber(lines[idx+1])
		unit, okUnit := scoring.ParseNumber(lines[idx+2])
		total, okTotal := scoring.ParseNumber(lines[idx+3])
		if !okQty || !okUnit || !okTotal {
			idx++
			continue
		}
		items = append(items, invoice.Document{
			"description": line,
			"qty":         qty,
			"unit_price":  unit,
			"line_total":  total,
		})
		idx += 4
	}
	return items
}
