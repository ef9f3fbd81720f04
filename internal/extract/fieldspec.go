package extract

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// Kind selects the validator/post-processor applied to a raw capture. The set
// of field semantics is small and fixed, so dispatch goes through this enum
// instead of per-field callables; the pattern library stays plain data.
type Kind int

const (
	KindText Kind = iota
	KindAmount
	KindDate
	KindDigits
	KindIBAN
	KindCurrency
	KindCompanyName
	KindVATRate
)

// FieldSpec is the static configuration for one extractable field: an ordered
// pattern list (earlier = more trusted), optional context clues for the
// window fallback, and the normalizer kind. Specs are built once at engine
// construction and shared read-only across all extraction calls.
type FieldSpec struct {
	Name         string
	Patterns     []string
	ContextClues []string
	Kind         Kind

	compiled []*regexp.Regexp
}

// compile builds the regexp list. A malformed pattern is logged and skipped;
// it must never take the rest of the field's patterns down with it. A pattern
// without a capturing group is skipped the same way, since the extractor
// reads the value from group 1. The pattern's priority index is preserved for
// confidence scoring even when an earlier pattern was dropped.
func (fs *FieldSpec) compile(log zerolog.Logger) {
	fs.compiled = make([]*regexp.Regexp, len(fs.Patterns))
	for i, p := range fs.Patterns {
		re, err := regexp.Compile(`(?im)` + p)
		if err != nil {
			log.Warn().Err(err).Str("field", fs.Name).Str("pattern", p).Msg("skipping malformed pattern")
			continue
		}
		if re.NumSubexp() == 0 {
			log.Warn().Str("field", fs.Name).Str("pattern", p).Msg("skipping pattern without capturing group")
			continue
		}
		fs.compiled[i] = re
	}
}

// DefaultFieldSpecs returns the built-in pattern library for Turkish
// invoices. Patterns are written against folded text (see NormalizeText), so
// label vocabulary appears in its ASCII form ("odenecek", "danismanlik").
func DefaultFieldSpecs() []FieldSpec {
	return []FieldSpec{
		{
			Name: FieldInvoiceNumber,
			Kind: KindText,
			Patterns: []string{
				`(?:fatura\s*(?:no|numarasi|num)?[:.\s]*)\s*([A-Z0-9\-/\.]+)`,
				`(?:belge\s*(?:no|numarasi)?[:.\s]*)\s*([A-Z0-9\-/\.]+)`,
				`(?:seri\s*(?:no|sira\s*no)?[:.\s]*)\s*([A-Z0-9\-/\.]+)`,
				`(?:invoice\s*(?:no|number)?[:.\s]*)\s*([A-Z0-9\-/\.]+)`,
				`(?:fis\s*no[:.\s]*)\s*([A-Z0-9\-/\.]+)`,
			},
			ContextClues: []string{"fatura", "belge", "seri", "invoice"},
		},
		{
			Name: FieldDate,
			Kind: KindDate,
			Patterns: []string{
				`(?:tarih|date|duzenleme\s*tarihi)[:.\s]*(\d{1,2}[./\-]\d{1,2}[./\-]\d{2,4})`,
				`(?:fis\s*tarihi[:.\s]*)(\d{1,2}[./\-]\d{1,2}[./\-]\d{2,4})`,
				`(?:duzenlenme\s*tarihi[:.\s]*)(\d{1,2}[./\-]\d{1,2}[./\-]\d{2,4})`,
				`(\d{1,2}[./\-]\d{1,2}[./\-]\d{2,4})`,
			},
			ContextClues: []string{"tarih", "date"},
		},
		{
			Name: FieldTaxNumber,
			Kind: KindDigits,
			Patterns: []string{
				`(?:vergi\s*(?:no|numarasi)[:.\s]*)(\d{10,11})`,
				`(?:vkn|v\.k\.n)[:.\s]*(\d{10,11})`,
				`(?:tc|t\.c)[:.\s]*(\d{11})`,
				`(?:tax\s*(?:no|id)[:.\s]*)(\d{10,11})`,
			},
			ContextClues: []string{"vergi", "vkn", "tax"},
		},
		{
			Name: FieldCompanyName,
			Kind: KindCompanyName,
			Patterns: []string{
				`(?:unvan|firma\s*adi|company)[:.\s]*([A-Za-z][A-Za-z\s.&\-'"]+?)(?:\s+(?:LTD|A\.S|SAN|TIC|INC|LLC)\.?)*$`,
				`^([A-Z][A-Za-z\s.&\-'"]+?)(?:\s+(?:LTD|A\.S|SAN|TIC|INC|LLC)\.?)+$`,
				`(?:satici|seller)[:.\s]*([A-Za-z][A-Za-z\s.&\-'"]+)`,
			},
			ContextClues: []string{"unvan", "firma", "satici"},
		},
		{
			Name: FieldTotalAmount,
			Kind: KindAmount,
			Patterns: []string{
				`(?:genel\s*toplam|grand\s*total|toplam|total)[:.\s]*([0-9.,]+)(?:\s*(?:TL|₺|TRY|USD|EUR))?`,
				`(?:odenecek\s*tutar|amount\s*due)[:.\s]*([0-9.,]+)(?:\s*(?:TL|₺|TRY|USD|EUR))?`,
				`(?:brut\s*tutar|gross\s*amount)[:.\s]*([0-9.,]+)(?:\s*(?:TL|₺|TRY|USD|EUR))?`,
				`(?:ara\s*toplam|subtotal)[:.\s]*([0-9.,]+)(?:\s*(?:TL|₺|TRY|USD|EUR))?`,
			},
			ContextClues: []string{"toplam", "odenecek", "total", "tutar"},
		},
		{
			Name: FieldNetAmount,
			Kind: KindAmount,
			Patterns: []string{
				`(?:net\s*tutar|net\s*amount)[:.\s]*([0-9.,]+)(?:\s*(?:TL|₺|TRY|USD|EUR))?`,
				`(?:vergisiz\s*tutar|tax\s*exclusive)[:.\s]*([0-9.,]+)(?:\s*(?:TL|₺|TRY|USD|EUR))?`,
			},
			ContextClues: []string{"net", "vergisiz"},
		},
		{
			Name: FieldVATAmount,
			Kind: KindAmount,
			Patterns: []string{
				`(?:kdv|ktv|vat)[:.\s]*([0-9.,]+)(?:\s*(?:TL|₺|TRY|USD|EUR))?`,
				`(?:katma\s*deger\s*vergisi)[:.\s]*([0-9.,]+)(?:\s*(?:TL|₺|TRY|USD|EUR))?`,
				`(?:%\s*(?:18|20|10|8|1))[:.\s]*([0-9.,]+)(?:\s*(?:TL|₺|TRY|USD|EUR))?`,
			},
			ContextClues: []string{"kdv", "vat", "vergi"},
		},
		{
			Name: FieldVATRate,
			Kind: KindVATRate,
			Patterns: []string{
				`(?:kdv\s*orani|vat\s*rate)[:.\s]*(?:%\s*)?(\d{1,2})`,
				`(%\s*(?:18|20|10|8|1))`,
				`(?:vergi\s*orani)[:.\s]*(?:%\s*)?(\d{1,2})`,
			},
			ContextClues: []string{"oran", "kdv"},
		},
		{
			Name: FieldCurrency,
			Kind: KindCurrency,
			Patterns: []string{
				`(TL|₺|TRY|USD|EUR|GBP)(?:\s|$)`,
				`(?:para\s*birimi|currency)[:.\s]*(TL|TRY|USD|EUR|GBP)`,
			},
		},
		{
			Name: FieldIBAN,
			Kind: KindIBAN,
			Patterns: []string{
				`(?:iban|hesap\s*no)[:.\s]*(TR\d{2}\s?\d{4}\s?\d{4}\s?\d{4}\s?\d{4}\s?\d{4}\s?\d{2})`,
				`(TR\d{24})`,
			},
			ContextClues: []string{"iban", "hesap"},
		},
		{
			Name: FieldDueDate,
			Kind: KindDate,
			Patterns: []string{
				`(?:vade\s*tarihi|due\s*date)[:.\s]*(\d{1,2}[./\-]\d{1,2}[./\-]\d{2,4})`,
				`(?:son\s*odeme\s*tarihi)[:.\s]*(\d{1,2}[./\-]\d{1,2}[./\-]\d{2,4})`,
			},
			ContextClues: []string{"vade", "son odeme", "due"},
		},
	}
}

// postProcess validates and converts a raw capture according to the field's
// kind. ok=false means the candidate is rejected and the extractor moves on
// to the next pattern.
func postProcess(kind Kind, raw string) (any, bool) {
	switch kind {
	case KindAmount:
		return boxFloat(ParseAmount(raw))
	case KindDate:
		return boxString(ParseDate(raw))
	case KindDigits:
		d := DigitsOnly(raw)
		if d == "" {
			return nil, false
		}
		return d, true
	case KindIBAN:
		return boxString(ValidateIBAN(raw))
	case KindCurrency:
		return NormalizeCurrency(raw), true
	case KindCompanyName:
		name := CleanCompanyName(raw)
		if name == "" {
			return nil, false
		}
		return name, true
	case KindVATRate:
		d := DigitsOnly(raw)
		if d == "" || len(d) > 2 {
			return nil, false
		}
		rate := 0
		for _, c := range d {
			rate = rate*10 + int(c-'0')
		}
		return rate, true
	default:
		v := trimmed(raw)
		if v == "" {
			return nil, false
		}
		return v, true
	}
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

func boxFloat(v float64, ok bool) (any, bool) {
	if !ok {
		return nil, false
	}
	return v, true
}

func boxString(v string, ok bool) (any, bool) {
	if !ok {
		return nil, false
	}
	return v, true
}
