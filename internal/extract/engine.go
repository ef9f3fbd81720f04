// Package extract turns noisy OCR text from Turkish invoices into typed,
// validated fields with per-field confidence scores.
//
// The pipeline is layered: per-field pattern lists run first, a context-window
// search catches fields the direct patterns missed, an optional entity
// annotation collaborator supplements lower-confidence fields, a special-rule
// pass applies the largest-amount heuristic, and a line-item parser scans the
// text for tabular rows. Result fusion keeps the highest-confidence candidate
// per field.
//
// The engine is a pure function of its input text plus its immutable
// configuration: it holds no mutable state, performs no I/O of its own, and is
// safe for concurrent use across independent documents. It never fails a run;
// malformed input or missing collaborators degrade to a smaller (possibly
// empty) result.
package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// Entity is one typed span produced by an annotation collaborator.
type Entity struct {
	// Label is the annotation type: MONEY, DATE, ORG, PERSON.
	Label string

	// Text is the annotated span.
	Text string

	// Start and End are byte offsets into the annotated text, when the
	// provider can supply them. Providers without offsets leave both zero.
	Start int
	End   int
}

// Annotator supplies named-entity annotations for the entity-based extractor.
// It is optional: a nil Annotator (or one that returns an error) skips the
// entity pass entirely and the engine degrades to pattern-only extraction.
type Annotator interface {
	Annotate(ctx context.Context, text string) ([]Entity, error)
}

// Fixed confidences for candidates that do not go through the pattern
// formula.
const (
	moneyEntityConfidence   = 0.70
	dateEntityConfidence    = 0.75
	companyEntityConfidence = 0.60
	ibanTokenConfidence     = 0.90
	amountRuleConfidence    = 0.80
	maxPatternConfidence    = 0.95
)

// Config carries the engine's immutable configuration. Construct it once at
// process start and share the resulting Engine; there is no global instance.
type Config struct {
	// Specs is the pattern library. Nil selects DefaultFieldSpecs.
	Specs []FieldSpec

	// Annotator is the optional entity annotation collaborator.
	Annotator Annotator

	Logger zerolog.Logger
}

// Engine extracts structured invoice fields from recovered document text.
type Engine struct {
	specs     []FieldSpec
	annotator Annotator
	log       zerolog.Logger
}

// NewEngine compiles the pattern library and returns a ready engine. The
// spec slice is copied first: compile writes the compiled pattern list, and
// the caller's slice must stay untouched so one Specs value can configure
// several engines.
func NewEngine(cfg Config) *Engine {
	specs := cfg.Specs
	if specs == nil {
		specs = DefaultFieldSpecs()
	} else {
		specs = append([]FieldSpec(nil), specs...)
	}
	for i := range specs {
		specs[i].compile(cfg.Logger)
	}
	return &Engine{
		specs:     specs,
		annotator: cfg.Annotator,
		log:       cfg.Logger,
	}
}

// Extract runs the full pipeline over text and returns the fused field
// mapping plus any line items. Empty input yields an empty result; Extract
// never returns an error.
func (e *Engine) Extract(ctx context.Context, text string) Result {
	result := Result{Fields: make(map[string]Field)}
	if strings.TrimSpace(text) == "" {
		return result
	}

	norm := NormalizeText(text)

	for i := range e.specs {
		spec := &e.specs[i]
		field, ok := e.matchPatterns(norm, spec, MethodRegex)
		if !ok && len(spec.ContextClues) > 0 {
			field, ok = e.searchContextWindow(norm, spec)
		}
		if ok {
			result.Fields[spec.Name] = field
		}
	}

	e.applyEntities(ctx, norm, result.Fields)
	e.applyAmountRule(norm, result.Fields)
	result.LineItems = e.extractLineItems(norm)

	e.log.Debug().
		Int("fields", len(result.Fields)).
		Int("line_items", len(result.LineItems)).
		Msg("extraction completed")
	return result
}

// matchPatterns applies a field's pattern list in priority order. Among the
// matches of a single pattern it prefers the one with the longest captured
// group; longer captures are less likely to be truncation artifacts.
//
// Confidence is 0.9 minus 0.1 per pattern rank, plus a length bonus of up to
// 0.1, capped at 0.95 so human validation stays the only path to certainty.
// A capture rejected by the field's post-processor discards the match and
// moves on to the next pattern.
func (e *Engine) matchPatterns(text string, spec *FieldSpec, method string) (Field, bool) {
	for i, re := range spec.compiled {
		if re == nil {
			continue
		}
		matches := re.FindAllStringSubmatch(text, -1)
		if len(matches) == 0 {
			continue
		}

		best := matches[0]
		for _, m := range matches[1:] {
			if len(m[1]) > len(best[1]) {
				best = m
			}
		}

		value, ok := postProcess(spec.Kind, best[1])
		if !ok {
			continue
		}

		base := 0.9 - 0.1*float64(i)
		bonus := float64(len(best[1])) / 20
		if bonus > 0.1 {
			bonus = 0.1
		}
		confidence := base + bonus
		if confidence > maxPatternConfidence {
			confidence = maxPatternConfidence
		}
		if confidence < 0 {
			confidence = 0
		}

		return Field{
			Value:      value,
			Confidence: confidence,
			SourceText: best[0],
			Method:     method,
		}, true
	}
	return Field{}, false
}

// searchContextWindow is the fallback for fields with declared context clues.
// For each line containing a clue it builds a window of the previous line,
// the line itself, and the following two lines, then re-applies the field's
// primary patterns to that window only. The confidence formula is unchanged;
// the narrower slice raises precision, not score.
func (e *Engine) searchContextWindow(text string, spec *FieldSpec) (Field, bool) {
	lines := strings.Split(text, "\n")
	for idx, line := range lines {
		lower := strings.ToLower(line)
		for _, clue := range spec.ContextClues {
			if !strings.Contains(lower, clue) {
				continue
			}
			start := idx - 1
			if start < 0 {
				start = 0
			}
			end := idx + 3
			if end > len(lines) {
				end = len(lines)
			}
			window := strings.Join(lines[start:end], "\n")
			if field, ok := e.matchPatterns(window, spec, MethodContext); ok {
				return field, true
			}
		}
	}
	return Field{}, false
}

var amountRulePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:toplam|odenecek)[^\n]*?(\d+[.,]\d{2})`),
	regexp.MustCompile(`(?i)(\d+[.,]\d{2})\s*(?:TL|₺|TRY)`),
}

// applyAmountRule re-scans the text for amounts near "total/payable"
// vocabulary and currency markers, and registers the maximum as a
// supplementary total_amount_rule candidate. On a Turkish invoice the grand
// total is typically the largest printed monetary figure.
func (e *Engine) applyAmountRule(text string, fields map[string]Field) {
	var amounts []float64
	for _, re := range amountRulePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if v, ok := ParseAmount(m[1]); ok {
				amounts = append(amounts, v)
			}
		}
	}
	if len(amounts) == 0 {
		return
	}
	maxAmount := amounts[0]
	for _, v := range amounts[1:] {
		if v > maxAmount {
			maxAmount = v
		}
	}
	merge(fields, FieldTotalAmountRule, Field{
		Value:      maxAmount,
		Confidence: amountRuleConfidence,
		SourceText: fmt.Sprintf("derived from %d candidates", len(amounts)),
		Method:     MethodRule,
	})
}

// merge is the fusion rule: the higher-confidence candidate wins, and on a
// tie the earlier-computed one is kept. Pattern results are computed before
// entity results, so pattern wins ties.
func merge(fields map[string]Field, name string, candidate Field) {
	if existing, ok := fields[name]; ok && existing.Confidence >= candidate.Confidence {
		return
	}
	fields[name] = candidate
}
