package ocr

import (
	"context"
	"errors"
	"testing"
)

type staticRecognizer struct {
	result *Result
	err    error
}

func (s *staticRecognizer) Recognize(ctx context.Context, data []byte, kind string) (*Result, error) {
	return s.result, s.err
}

func TestRouterDispatchesByKind(t *testing.T) {
	pdfRec := &staticRecognizer{result: &Result{Text: "from pdf"}}
	imgRec := &staticRecognizer{result: &Result{Text: "from image"}}
	r := &Router{PDF: pdfRec, Image: imgRec}

	result, err := r.Recognize(context.Background(), []byte("%PDF-"), KindPDF)
	if err != nil {
		t.Fatalf("pdf recognize failed: %v", err)
	}
	if result.Text != "from pdf" {
		t.Errorf("pdf result = %q", result.Text)
	}

	result, err = r.Recognize(context.Background(), []byte{0xFF, 0xD8}, KindImage)
	if err != nil {
		t.Fatalf("image recognize failed: %v", err)
	}
	if result.Text != "from image" {
		t.Errorf("image result = %q", result.Text)
	}
}

func TestRouterUnsupportedKind(t *testing.T) {
	r := &Router{Image: &staticRecognizer{result: &Result{}}}

	_, err := r.Recognize(context.Background(), []byte("%PDF-"), KindPDF)
	if !errors.Is(err, ErrUnsupportedKind) {
		t.Errorf("expected ErrUnsupportedKind, got %v", err)
	}
}

func TestFallbackFirstSuccessWins(t *testing.T) {
	f := Fallback{
		&staticRecognizer{err: NewRecognitionError("first.recognize", ErrEmptyDocument, "no text layer")},
		&staticRecognizer{result: &Result{Text: "recovered", Quality: 0.8}},
	}

	result, err := f.Recognize(context.Background(), nil, KindPDF)
	if err != nil {
		t.Fatalf("fallback failed: %v", err)
	}
	if result.Text != "recovered" {
		t.Errorf("result = %q", result.Text)
	}
}

func TestFallbackReturnsLastError(t *testing.T) {
	f := Fallback{
		&staticRecognizer{err: NewRecognitionError("first.recognize", ErrEmptyDocument, "no text layer")},
		&staticRecognizer{err: NewRecognitionError("second.recognize", ErrRecognitionFailed, "provider down")},
	}

	_, err := f.Recognize(context.Background(), nil, KindPDF)
	if !errors.Is(err, ErrRecognitionFailed) {
		t.Errorf("expected last error, got %v", err)
	}
}
