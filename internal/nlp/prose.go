// Package nlp provides entity annotation collaborators for the extraction
// engine.
//
// Two providers are available: a local statistical NER model (prose), which
// is the default and needs no network access or credentials, and an OpenAI
// chat-completion annotator for documents where the local model's English
// training data falls short. Both implement extract.Annotator; the engine
// treats annotation as strictly optional and keeps working without it.
package nlp

import (
	"context"
	"strings"

	prose "github.com/tsawler/prose/v3"

	"github.com/ardcek/fatura-ocr-app/internal/extract"
)

// ProseAnnotator annotates text with the prose NLP library. It is stateless
// and safe for concurrent use.
type ProseAnnotator struct{}

// NewProseAnnotator returns a prose-backed annotator.
func NewProseAnnotator() *ProseAnnotator {
	return &ProseAnnotator{}
}

// Annotate runs prose named-entity recognition and maps its labels onto the
// engine's entity vocabulary. Spans whose labels have no mapping are dropped.
func (a *ProseAnnotator) Annotate(ctx context.Context, text string) ([]extract.Entity, error) {
	doc, err := prose.NewDocument(text)
	if err != nil {
		return nil, err
	}

	var entities []extract.Entity
	for _, ent := range doc.Entities() {
		label := mapProseLabel(ent.Label)
		if label == "" {
			continue
		}
		span := strings.TrimSpace(ent.Text)
		if span == "" {
			continue
		}
		start := strings.Index(text, span)
		end := 0
		if start >= 0 {
			end = start + len(span)
		} else {
			start = 0
		}
		entities = append(entities, extract.Entity{
			Label: label,
			Text:  span,
			Start: start,
			End:   end,
		})
	}
	return entities, nil
}

// mapProseLabel converts prose entity labels to the engine's vocabulary.
// prose emits GPE for place names; those carry no invoice signal and are
// dropped.
func mapProseLabel(label string) string {
	switch strings.ToUpper(label) {
	case "PERSON":
		return "PERSON"
	case "ORG", "ORGANIZATION":
		return "ORG"
	case "MONEY":
		return "MONEY"
	case "DATE":
		return "DATE"
	default:
		return ""
	}
}
