// Package ocr recovers text from uploaded invoice documents.
//
// Three providers implement the Recognizer interface: a local Tesseract
// binding for scanned images, a PDF text-layer reader for born-digital PDFs,
// and Google Cloud Vision for documents the local providers handle poorly.
// The provider is selected by configuration at process start.
//
// Recognition failures are recoverable by design: callers that can continue
// without text should use RecognizeOrEmpty, which degrades to an empty result
// instead of failing the surrounding workflow.
package ocr

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Document kinds accepted by Recognize.
const (
	KindPDF   = "pdf"
	KindImage = "image"
)

// Recognizer extracts text from a document of the given kind.
type Recognizer interface {
	// Recognize returns the recovered text with provider metadata. The kind
	// is one of KindPDF or KindImage.
	Recognize(ctx context.Context, data []byte, kind string) (*Result, error)
}

// Result is the outcome of one recognition run.
type Result struct {
	// Text is the recovered text, page texts concatenated in reading order.
	Text string `json:"text"`

	// Quality estimates how trustworthy the text is, in [0,1]. Text-layer
	// extraction reports a fixed high quality; OCR providers report their
	// engine's mean confidence.
	Quality float64 `json:"quality"`

	// Pages is the number of pages processed, when the provider knows it.
	Pages int `json:"pages,omitempty"`

	// Provider names the backend that produced the text.
	Provider string `json:"provider"`

	// ProcessedAt is when recognition completed.
	ProcessedAt time.Time `json:"processed_at"`

	// Duration is how long recognition took.
	Duration time.Duration `json:"duration"`
}

// DetectKind classifies a document by its content, falling back to the file
// extension. Unknown content defaults to KindImage since Tesseract tolerates
// most raster formats.
func DetectKind(filename string, data []byte) string {
	if bytes.HasPrefix(data, []byte("%PDF")) {
		return KindPDF
	}
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return KindPDF
	}
	return KindImage
}

// RecognizeOrEmpty runs the recognizer and degrades any failure to an empty
// result. The extraction pipeline downstream treats empty text as an empty
// field mapping, so a failed OCR run shrinks the output instead of aborting
// the document's workflow.
func RecognizeOrEmpty(ctx context.Context, r Recognizer, log zerolog.Logger, data []byte, kind string) (string, float64) {
	result, err := r.Recognize(ctx, data, kind)
	if err != nil {
		log.Warn().Err(err).Str("kind", kind).Msg("text recognition failed, continuing with empty text")
		return "", 0.0
	}
	return result.Text, result.Quality
}
