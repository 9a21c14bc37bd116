package invoice

// FieldType classifies how a field is compared during scoring.
type FieldType string

const (
	FieldText   FieldType = "text"
	FieldDate   FieldType = "date"
	FieldAmount FieldType = "amount"
	FieldNumber FieldType = "number"
)

// FieldSpec describes one scorable field of an invoice document.
type FieldSpec struct {
	Path  string
	Label string
	Type  FieldType
}

// Fields is the canonical set of top-level invoice fields, addressed by
// dotted path into the document.
var Fields = []FieldSpec{
	{"invoice.number", "Invoice number", FieldText},
	{"invoice.date", "Invoice date", FieldDate},
	{"invoice.due_date", "Due date", FieldDate},
	{"invoice.reference", "Reference", FieldText},
	{"seller.name", "Seller name", FieldText},
	{"seller.contact", "Seller contact", FieldText},
	{"seller.email", "Seller email", FieldText},
	{"seller.address", "Seller address", FieldText},
	{"client.name", "Client name", FieldText},
	{"client.contact", "Client contact", FieldText},
	{"client.email", "Client email", FieldText},
	{"client.address", "Client address", FieldText},
	{"totals.subtotal", "Subtotal", FieldAmount},
	{"totals.tax", "Tax", FieldAmount},
	{"totals.due", "Amount due", FieldAmount},
	{"payment.bank", "Bank", FieldText},
	{"payment.iban", "IBAN", FieldText},
	{"payment.reference", "Payment reference", FieldText},
	{"notes", "Notes", FieldText},
}

// ItemFields are the per-line-item fields. Item records are flat maps, so
// the paths here are plain keys.
var ItemFields = []FieldSpec{
	{"description", "Item description", FieldText},
	{"qty", "Quantity", FieldNumber},
	{"unit_price", "Unit price", FieldAmount},
	{"line_total", "Line total", FieldAmount},
}

// FieldByPath returns the spec for a dotted path, if it is a known field.
func FieldByPath(path string) (FieldSpec, bool) {
	for _, spec := range Fields {
		if spec.Path == path {
			return spec, true
		}
	}
	return FieldSpec{}, false
}
