package extract

// Extraction methods, recorded on every Field so reviewers can see where a
// value came from.
const (
	// MethodRegex marks values found by the per-field pattern lists.
	MethodRegex = "regex"

	// MethodContext marks values found by re-applying a field's patterns to a
	// narrow window around a context clue.
	MethodContext = "context"

	// MethodNER marks values contributed by the entity annotation collaborator.
	MethodNER = "ner"

	// MethodRule marks values derived by special rules rather than matched
	// directly (e.g. the largest-amount heuristic).
	MethodRule = "rule"
)

// Field is one extracted invoice attribute with its calibrated confidence.
// Fields are immutable once produced; a new extraction run always creates
// fresh values.
type Field struct {
	// Value is the typed, post-processed value: string, float64, int for
	// vat_rate, or an ISO date string for date fields.
	Value any `json:"value"`

	// Confidence is in [0,1]. Pattern-sourced values are capped at 0.95 so
	// that human validation remains the only source of full certainty.
	Confidence float64 `json:"confidence"`

	// SourceText is the verbatim substring of the (normalized) input that the
	// value was taken from, or a synthetic marker for rule-derived values.
	SourceText string `json:"source_text"`

	// Method is one of the Method* constants.
	Method string `json:"method"`
}

// LineItem is one row of the invoice's itemized goods/services table.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
	Unit        string  `json:"unit"`
}

// Result maps field names to their best extracted candidate. Ownership is
// transferred fully to the caller; the engine keeps no reference to it.
type Result struct {
	Fields    map[string]Field `json:"fields"`
	LineItems []LineItem       `json:"line_items,omitempty"`
}

// Get returns the field for name, if present.
func (r Result) Get(name string) (Field, bool) {
	f, ok := r.Fields[name]
	return f, ok
}

// Float returns the field's value as float64 when it holds a number.
func (r Result) Float(name string) (float64, bool) {
	f, ok := r.Fields[name]
	if !ok {
		return 0, false
	}
	v, ok := f.Value.(float64)
	return v, ok
}

// String returns the field's value as a string when it holds one.
func (r Result) String(name string) (string, bool) {
	f, ok := r.Fields[name]
	if !ok {
		return "", false
	}
	v, ok := f.Value.(string)
	return v, ok
}

// Canonical field names produced by the engine.
const (
	FieldInvoiceNumber = "invoice_number"
	FieldDate          = "date"
	FieldTaxNumber     = "tax_number"
	FieldCompanyName   = "company_name"
	FieldTotalAmount   = "total_amount"
	FieldNetAmount     = "net_amount"
	FieldVATAmount     = "vat_amount"
	FieldVATRate       = "vat_rate"
	FieldCurrency      = "currency"
	FieldIBAN          = "iban"
	FieldDueDate       = "due_date"

	// FieldTotalAmountRule is the supplementary candidate registered by the
	// largest-amount heuristic. It never replaces total_amount; downstream
	// consumers may prefer it when total_amount is missing or low-confidence.
	FieldTotalAmountRule = "total_amount_rule"
)
