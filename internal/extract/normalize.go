package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	reNonNumeric = regexp.MustCompile(`[^\d.,]`)
	reNonDigit   = regexp.MustCompile(`\D`)
	reTRIBAN     = regexp.MustCompile(`^TR\d{24}$`)
	reSpaces     = regexp.MustCompile(`[ \t]+`)
)

// turkishReplacer folds Turkish letters to their ASCII neighbours before
// matching. Scanned invoices render these glyphs inconsistently, so the
// pattern library is written against the folded text.
var turkishReplacer = strings.NewReplacer(
	"İ", "I", "ı", "i",
	"Ş", "S", "ş", "s",
	"Ç", "C", "ç", "c",
	"Ğ", "G", "ğ", "g",
	"Ü", "U", "ü", "u",
	"Ö", "O", "ö", "o",
)

// NormalizeText prepares raw OCR output for pattern matching: Turkish glyphs
// are folded to ASCII and runs of spaces/tabs collapse to a single space.
// Newlines are preserved; the line-item parser and the context-window search
// both depend on line structure.
func NormalizeText(text string) string {
	text = turkishReplacer.Replace(text)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(reSpaces.ReplaceAllString(line, " "))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// ParseAmount parses a locale-formatted amount string, disambiguating the
// Turkish convention (1.234,56) from the dotted-decimal one (1234.56).
//
// When both separators occur the right-most one is the decimal point and the
// other is stripped as a thousands separator. A lone comma is decimal when at
// most two digits follow it. A lone dot followed by a three-digit group is a
// thousands separator.
//
// Unparseable input reports ok=false; it is an extraction miss, never an
// error.
func ParseAmount(s string) (float64, bool) {
	cleaned := reNonNumeric.ReplaceAllString(strings.TrimSpace(s), "")
	if cleaned == "" {
		return 0, false
	}

	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")

	switch {
	case hasComma && hasDot:
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			// 1.234,56 -> comma is decimal
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			// 1,234.56 -> dot is decimal
			cleaned = strings.ReplaceAll(cleaned, ",", "")
			cleaned = joinDotGroups(cleaned)
		}
	case hasComma:
		parts := strings.Split(cleaned, ",")
		if len(parts[len(parts)-1]) <= 2 {
			cleaned = strings.Join(parts[:len(parts)-1], "") + "." + parts[len(parts)-1]
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case hasDot:
		cleaned = joinDotGroups(cleaned)
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// joinDotGroups resolves dot-only numbers: the final group is the fraction
// when it is one or two digits long, otherwise every dot is a thousands
// separator (1.234 -> 1234, 1.234.56 -> 1234.56, 1234.56 -> 1234.56).
func joinDotGroups(s string) string {
	parts := strings.Split(s, ".")
	if len(parts) == 1 {
		return s
	}
	last := parts[len(parts)-1]
	if len(last) <= 2 {
		return strings.Join(parts[:len(parts)-1], "") + "." + last
	}
	return strings.Join(parts, "")
}

// dateLayouts is a fixed priority order: Turkish day-first forms with four-
// then two-digit years, then ISO-like year-first forms. The first layout that
// fully parses wins.
var dateLayouts = []string{
	"2.1.2006", "2/1/2006", "2-1-2006",
	"2.1.06", "2/1/06", "2-1-06",
	"2006-1-2", "2006.1.2", "2006/1/2",
}

// ParseDate normalizes a date string to YYYY-MM-DD. It reports ok=false when
// no known layout matches.
func ParseDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// ValidateIBAN accepts only the Turkish IBAN shape: "TR" followed by 24
// digits. Whitespace is stripped and letters upper-cased first.
func ValidateIBAN(s string) (string, bool) {
	iban := strings.ToUpper(strings.Join(strings.Fields(s), ""))
	if !reTRIBAN.MatchString(iban) {
		return "", false
	}
	return iban, true
}

// companySuffixes are legal-form tokens stripped from the trailing end of a
// company name. The list is checked longest-variant first so "LTD." wins over
// "LTD". Entries are written against folded text (see NormalizeText).
var companySuffixes = []string{
	"LIMITED", "LİMİTED", "LIMITED.",
	"ANONIM", "ANONİM",
	"SANAYI", "SANAYİ",
	"TICARET", "TİCARET",
	"LTD.", "LTD",
	"A.S.", "A.S", "A.Ş.", "A.Ş",
	"SAN.", "SAN",
	"TIC.", "TİC.", "TIC", "TİC",
	"INC.", "INC", "LLC", "CORP",
}

// CleanCompanyName trims a raw company capture and strips one trailing
// legal-suffix token.
func CleanCompanyName(name string) string {
	cleaned := strings.TrimSpace(name)
	upper := strings.ToUpper(cleaned)
	for _, suffix := range companySuffixes {
		if strings.HasSuffix(upper, suffix) {
			cleaned = strings.TrimSpace(cleaned[:len(cleaned)-len(suffix)])
			break
		}
	}
	return strings.TrimRight(cleaned, " .,-")
}

// NormalizeCurrency maps currency markers to a fixed 3-letter code. The lira
// symbol and "TL" both map to TRY; anything else is upper-cased as-is.
func NormalizeCurrency(s string) string {
	v := strings.ToUpper(strings.TrimSpace(s))
	switch v {
	case "₺", "TL":
		return "TRY"
	default:
		return v
	}
}

// DigitsOnly strips every non-digit rune, used for tax and ID numbers.
func DigitsOnly(s string) string {
	return reNonDigit.ReplaceAllString(s, "")
}
