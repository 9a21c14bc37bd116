package invoice

import (
	"regexp"
	"strings"
)

// Labels maps each field path to the label synonyms that invoice layouts
// use for it. Covers English, German, Czech (with and without diacritics)
// and Chinese.
var Labels = map[string][]string{
	"invoice.number": {
		"invoice number", "invoice no", "invoice #", "invoice id",
		"rechnungsnummer", "rechnungs nr", "rechnungsnr",
		"cislo faktury", "číslo faktury", "faktura c", "faktura č",
		"发票编号", "发票号码", "发票号",
	},
	"invoice.date": {
		"invoice date", "date",
		"rechnungsdatum", "ausstellungsdatum",
		"datum vystaveni", "datum vystavení",
		"开票日期", "发票日期",
	},
	"invoice.due_date": {
		"due date", "payment due", "pay by",
		"faelligkeitsdatum", "fälligkeitsdatum", "zahlbar bis",
		"datum splatnosti", "splatnost",
		"到期日期", "到期日", "付款期限",
	},
	"invoice.reference": {
		"reference", "ref", "order ref", "po",
		"bestellnummer", "auftragsnummer", "referenz",
		"variabilni symbol", "variabilní symbol", "objednavka", "objednávka",
		"参考号", "参考编号", "订单号", "订单编号", "采购订单",
	},
	"seller.name": {
		"seller", "from", "supplier",
		"lieferant", "verkaeufer", "verkäufer",
		"dodavatel", "vystavitel",
		"卖方", "销售方", "供应商", "发票方",
	},
	"seller.contact": {
		"seller contact", "from contact", "supplier contact",
		"kontakt", "kontaktperson", "ansprechpartner",
		"kontaktni osoba", "kontaktní osoba",
		"联系人", "联系方式",
	},
	"seller.email": {
		"seller email", "from email", "supplier email", "email", "e-mail",
		"emailova adresa", "emailová adresa",
		"电子邮件", "邮箱",
	},
	"seller.address": {
		"seller address", "from address", "supplier address", "address",
		"anschrift", "adresse", "adresa", "sidlo", "sídlo",
		"地址",
	},
	"client.name": {
		"client", "bill to", "customer",
		"kunde", "rechnungsempfaenger", "rechnungsempfänger", "empfaenger", "empfänger",
		"odberatel", "odběratel", "zakaznik", "zákazník",
		"买方", "客户", "购方",
	},
	"client.contact": {
		"client contact", "bill to contact", "customer contact",
		"kontakt", "ansprechpartner",
		"kontaktni osoba", "kontaktní osoba",
		"联系人", "联系方式",
	},
	"client.email": {
		"client email", "customer email", "email", "e-mail",
		"电子邮件", "邮箱",
	},
	"client.address": {
		"client address", "bill to address", "customer address",
		"anschrift", "adresse", "adresa",
		"地址",
	},
	"totals.subtotal": {"subtotal", "zwischensumme", "netto", "mezisoucet", "mezisoučet", "小计"},
	"totals.tax":      {"tax", "vat", "mwst", "umsatzsteuer", "ust", "dph", "daň", "税额", "税"},
	"totals.due": {
		"total", "amount due", "balance due", "total due",
		"gesamt", "gesamtbetrag", "summe",
		"celkem", "castka k uhrade", "částka k úhradě", "k uhrade",
		"合计", "总计", "应付", "应付金额", "总额",
	},
	"payment.bank": {"bank", "bankverbindung", "banka", "bankovni spojeni", "bankovní spojení", "开户行", "银行"},
	"payment.iban": {"iban"},
	"payment.reference": {
		"payment reference", "payment ref", "reference",
		"verwendungszweck", "zahlungsreferenz",
		"variabilni symbol", "variabilní symbol", "specificky symbol", "specifický symbol",
		"付款参考", "汇款附言",
	},
	"notes": {"notes", "note", "bemerkungen", "hinweis", "notiz", "poznamka", "poznámka", "备注", "说明"},
}

// Sublabels are panel sub-headings that sit between a section label and its
// value. When a value lookup lands on one of these, the real value is on the
// following line.
var Sublabels = map[string]bool{
	"name":    true,
	"contact": true,
	"email":   true,
	"e-mail":  true,
	"address": true,
	"jmeno":   true, "jméno": true,
	"nazev": true, "název": true,
	"kontakt":         true,
	"kontaktni osoba": true, "kontaktní osoba": true,
	"adresa":    true,
	"anschrift": true,
	"adresse":   true,
	"名称":        true,
	"联系人":       true,
	"联系方式":      true,
	"电子邮件":      true,
	"邮箱":        true,
	"地址":        true,
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeLabel collapses whitespace and lowercases a line for label
// comparison.
func NormalizeLabel(line string) string {
	return strings.TrimSpace(strings.ToLower(whitespaceRe.ReplaceAllString(line, " ")))
}

var normalizedLabels = func() map[string]bool {
	set := make(map[string]bool)
	for _, labels := range Labels {
		for _, label := range labels {
			if norm := NormalizeLabel(label); norm != "" {
				set[norm] = true
			}
		}
	}
	return set
}()

// LooksLikeLabel reports whether a line is a known field label or panel
// sub-heading rather than a value.
func LooksLikeLabel(line string) bool {
	norm := NormalizeLabel(line)
	return normalizedLabels[norm] || Sublabels[norm]
}
