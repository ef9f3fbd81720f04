package ocr

import (
	"bytes"
	"context"
	"image"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// minImageHeight is the height below which scans are upscaled before OCR.
// Tesseract's accuracy on Turkish diacritics drops sharply on low-resolution
// input.
const minImageHeight = 800

// upscaleHeight is the target height for upscaled scans.
const upscaleHeight = 1200

// TesseractRecognizer runs a local Tesseract engine via gosseract. It needs
// the tesseract binary and the Turkish traineddata installed on the host.
type TesseractRecognizer struct {
	// Languages as a tesseract language string, e.g. "tur+eng".
	Languages string
}

// NewTesseractRecognizer creates a recognizer for the given language string.
// An empty string selects Turkish plus English.
func NewTesseractRecognizer(languages string) *TesseractRecognizer {
	if languages == "" {
		languages = "tur+eng"
	}
	return &TesseractRecognizer{Languages: languages}
}

// Recognize preprocesses the image (grayscale, upscale small scans) and runs
// Tesseract over it. PDF input is not supported; route PDFs through the
// text-layer or Vision providers.
func (t *TesseractRecognizer) Recognize(ctx context.Context, data []byte, kind string) (*Result, error) {
	const op = "TesseractRecognizer.Recognize"
	start := time.Now()

	if kind != KindImage {
		return nil, NewRecognitionError(op, ErrUnsupportedKind, "tesseract handles images only")
	}
	if err := ctx.Err(); err != nil {
		return nil, WrapRecognitionError(op, err, "")
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, WrapRecognitionError(op, err, "failed to decode image")
	}

	prepared, err := encodePNG(preprocess(img))
	if err != nil {
		return nil, WrapRecognitionError(op, err, "failed to encode preprocessed image")
	}

	// gosseract reads images from disk, so the preprocessed frame goes
	// through a temp file.
	tmp, err := os.CreateTemp("", "fatura-ocr-*.png")
	if err != nil {
		return nil, WrapRecognitionError(op, err, "failed to create temp file")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(prepared); err != nil {
		tmp.Close()
		return nil, WrapRecognitionError(op, err, "failed to write temp file")
	}
	if err := tmp.Close(); err != nil {
		return nil, WrapRecognitionError(op, err, "failed to close temp file")
	}

	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(strings.Split(t.Languages, "+")...); err != nil {
		return nil, WrapRecognitionError(op, err, "failed to set tesseract language")
	}
	if err := client.SetImage(tmp.Name()); err != nil {
		return nil, WrapRecognitionError(op, err, "failed to set image")
	}

	text, err := client.Text()
	if err != nil {
		return nil, WrapRecognitionError(op, ErrRecognitionFailed, err.Error())
	}
	if strings.TrimSpace(text) == "" {
		return nil, NewRecognitionError(op, ErrEmptyDocument, "")
	}

	now := time.Now()
	return &Result{
		Text:        text,
		Quality:     tesseractQuality(text),
		Pages:       1,
		Provider:    "tesseract",
		ProcessedAt: now,
		Duration:    now.Sub(start),
	}, nil
}

// preprocess converts the scan to grayscale and upscales small frames.
func preprocess(img image.Image) image.Image {
	gray := imaging.Grayscale(img)
	if gray.Bounds().Dy() < minImageHeight {
		return imaging.Resize(gray, 0, upscaleHeight, imaging.Lanczos)
	}
	return gray
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// tesseractQuality is a cheap text-based estimate: the share of printable
// word characters in the output. Garbled OCR output is dominated by
// punctuation noise and lone symbols.
func tesseractQuality(text string) float64 {
	if text == "" {
		return 0
	}
	var wordChars, total int
	for _, r := range text {
		if r == '\n' || r == ' ' || r == '\t' {
			continue
		}
		total++
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r > 127 {
			wordChars++
		}
	}
	if total == 0 {
		return 0
	}
	q := float64(wordChars) / float64(total)
	if q > 0.9 {
		q = 0.9
	}
	return q
}
