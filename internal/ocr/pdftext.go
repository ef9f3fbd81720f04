package ocr

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

// pdfTextQuality is the fixed quality reported for born-digital PDF text.
// The text layer is authored, not recognized, so it outranks any OCR output
// while staying below certainty; encoding quirks still garble some PDFs.
const pdfTextQuality = 0.9

// PDFTextRecognizer reads the embedded text layer of born-digital PDFs. It
// performs no OCR: scanned PDFs without a text layer come back as
// ErrEmptyDocument and should be retried with an OCR provider.
type PDFTextRecognizer struct{}

// NewPDFTextRecognizer returns a text-layer recognizer.
func NewPDFTextRecognizer() *PDFTextRecognizer {
	return &PDFTextRecognizer{}
}

// Recognize extracts the text layer page by page, joining rows with
// newlines so the downstream line-oriented parsers see the page structure.
func (p *PDFTextRecognizer) Recognize(ctx context.Context, data []byte, kind string) (*Result, error) {
	const op = "PDFTextRecognizer.Recognize"
	start := time.Now()

	if kind != KindPDF {
		return nil, NewRecognitionError(op, ErrUnsupportedKind, "text-layer extraction handles PDFs only")
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		return nil, NewRecognitionError(op, ErrInvalidPDF, "missing PDF header")
	}
	if err := ctx.Err(); err != nil {
		return nil, WrapRecognitionError(op, err, "")
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, WrapRecognitionError(op, ErrInvalidPDF, err.Error())
	}

	var sb strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, WrapRecognitionError(op, err, "failed to read page text")
		}
		for _, row := range rows {
			for j, word := range row.Content {
				if j > 0 {
					sb.WriteString(" ")
				}
				sb.WriteString(word.S)
			}
			sb.WriteString("\n")
		}
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return nil, NewRecognitionError(op, ErrEmptyDocument, "no text layer, document likely needs OCR")
	}

	now := time.Now()
	return &Result{
		Text:        text,
		Quality:     pdfTextQuality,
		Pages:       pages,
		Provider:    "pdf-text",
		ProcessedAt: now,
		Duration:    now.Sub(start),
	}, nil
}
