package extract

import (
	"context"
	"regexp"
	"strings"
)

var (
	reNumberToken = regexp.MustCompile(`[\d.,]+`)
	reDayFirst    = regexp.MustCompile(`\d{1,2}[./\-]\d{1,2}[./\-]\d{2,4}`)
	reYearFirst   = regexp.MustCompile(`\d{2,4}[./\-]\d{1,2}[./\-]\d{1,2}`)
)

// applyEntities runs the entity-based extractor: annotation spans become
// field candidates at fixed confidences (MONEY 0.70, DATE 0.75, ORG/PERSON
// 0.60) and raw tokens are scanned for Turkish IBANs at 0.90. Candidates are
// fused with the existing fields through merge, so an entity never displaces
// a higher-confidence pattern result.
//
// An unavailable or failing annotator skips this pass; the run still
// succeeds on the pattern-only path.
func (e *Engine) applyEntities(ctx context.Context, text string, fields map[string]Field) {
	if e.annotator == nil {
		return
	}
	entities, err := e.annotator.Annotate(ctx, text)
	if err != nil {
		e.log.Warn().Err(err).Msg("entity annotation unavailable, continuing with pattern results")
		return
	}

	for _, ent := range entities {
		switch ent.Label {
		case "MONEY":
			if amount, ok := parseMoneySpan(ent.Text); ok {
				merge(fields, FieldTotalAmount, Field{
					Value:      amount,
					Confidence: moneyEntityConfidence,
					SourceText: ent.Text,
					Method:     MethodNER,
				})
			}
		case "DATE":
			if date, ok := parseDateSpan(ent.Text); ok {
				merge(fields, FieldDate, Field{
					Value:      date,
					Confidence: dateEntityConfidence,
					SourceText: ent.Text,
					Method:     MethodNER,
				})
			}
		case "ORG", "PERSON":
			if name := CleanCompanyName(ent.Text); name != "" {
				merge(fields, FieldCompanyName, Field{
					Value:      name,
					Confidence: companyEntityConfidence,
					SourceText: ent.Text,
					Method:     MethodNER,
				})
			}
		}
	}

	// IBANs rarely come back as labeled spans; a raw token scan covers them.
	for _, token := range strings.Fields(text) {
		if len(token) < 24 || !strings.HasPrefix(strings.ToUpper(token), "TR") {
			continue
		}
		if iban, ok := ValidateIBAN(token); ok {
			merge(fields, FieldIBAN, Field{
				Value:      iban,
				Confidence: ibanTokenConfidence,
				SourceText: token,
				Method:     MethodNER,
			})
		}
	}
}

// parseMoneySpan pulls the last numeric token out of a MONEY span ("toplam
// 1.180,00 TL" annotates as one span) and parses it as an amount.
func parseMoneySpan(s string) (float64, bool) {
	tokens := reNumberToken.FindAllString(s, -1)
	if len(tokens) == 0 {
		return 0, false
	}
	return ParseAmount(tokens[len(tokens)-1])
}

// parseDateSpan locates a date-shaped token inside a DATE span and
// normalizes it. Day-first shapes are tried before year-first ones.
func parseDateSpan(s string) (string, bool) {
	for _, re := range []*regexp.Regexp{reDayFirst, reYearFirst} {
		if m := re.FindString(s); m != "" {
			if date, ok := ParseDate(m); ok {
				return date, true
			}
		}
	}
	return "", false
}
