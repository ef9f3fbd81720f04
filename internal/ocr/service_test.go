package ocr

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestDetectKind(t *testing.T) {
	tests := []struct {
		filename string
		data     []byte
		want     string
	}{
		{"fatura.pdf", []byte("%PDF-1.7 ..."), KindPDF},
		{"renamed.jpg", []byte("%PDF-1.4 ..."), KindPDF},
		{"fatura.pdf", []byte("not really"), KindPDF},
		{"FATURA.PDF", nil, KindPDF},
		{"scan.jpg", []byte{0xFF, 0xD8, 0xFF}, KindImage},
		{"scan.png", nil, KindImage},
		{"unknown", nil, KindImage},
	}
	for _, tt := range tests {
		if got := DetectKind(tt.filename, tt.data); got != tt.want {
			t.Errorf("DetectKind(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

func TestRecognitionErrorUnwrap(t *testing.T) {
	err := WrapRecognitionError("Recognize", ErrInvalidPDF, "missing header")
	if !errors.Is(err, ErrInvalidPDF) {
		t.Errorf("wrapped error does not match sentinel: %v", err)
	}

	// Double wrapping keeps the original.
	again := WrapRecognitionError("Outer", err, "")
	if again != err {
		t.Error("already-wrapped error was wrapped again")
	}

	if WrapRecognitionError("Recognize", nil, "") != nil {
		t.Error("wrapping nil must stay nil")
	}
}

func TestPDFTextRecognizerRejectsBadInput(t *testing.T) {
	r := NewPDFTextRecognizer()

	if _, err := r.Recognize(context.Background(), []byte("%PDF"), KindImage); !errors.Is(err, ErrUnsupportedKind) {
		t.Errorf("image kind: got %v, want ErrUnsupportedKind", err)
	}
	if _, err := r.Recognize(context.Background(), []byte("plain text"), KindPDF); !errors.Is(err, ErrInvalidPDF) {
		t.Errorf("non-pdf data: got %v, want ErrInvalidPDF", err)
	}
}

// failingRecognizer always errors, for exercising the degrade path.
type failingRecognizer struct{}

func (failingRecognizer) Recognize(ctx context.Context, data []byte, kind string) (*Result, error) {
	return nil, NewRecognitionError("Recognize", ErrRecognitionFailed, "backend down")
}

func TestRecognizeOrEmptyDegrades(t *testing.T) {
	text, quality := RecognizeOrEmpty(context.Background(), failingRecognizer{}, zerolog.Nop(), []byte("x"), KindImage)
	if text != "" || quality != 0.0 {
		t.Errorf("got (%q, %v), want empty degrade", text, quality)
	}
}

func TestTesseractQuality(t *testing.T) {
	if q := tesseractQuality(""); q != 0 {
		t.Errorf("empty text quality = %v, want 0", q)
	}
	clean := tesseractQuality("Fatura No FTR-2024-0012")
	noisy := tesseractQuality("~~~ ### |||| ..,,;;")
	if clean <= noisy {
		t.Errorf("clean text (%v) should outscore noise (%v)", clean, noisy)
	}
	if clean > 0.9 {
		t.Errorf("quality %v exceeds cap", clean)
	}
}
