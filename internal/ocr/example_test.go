package ocr_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/ardcek/fatura-ocr-app/internal/ocr"
)

// Example demonstrates recovering text from a born-digital PDF.
func Example() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	data, err := os.ReadFile("fatura.pdf")
	if err != nil {
		log.Fatalf("Failed to read PDF: %v", err)
	}

	recognizer := ocr.NewPDFTextRecognizer()
	result, err := recognizer.Recognize(ctx, data, ocr.DetectKind("fatura.pdf", data))
	if err != nil {
		log.Fatalf("Failed to recognize text: %v", err)
	}

	fmt.Printf("Recovered %d characters from %d pages (quality %.2f)\n",
		len(result.Text), result.Pages, result.Quality)
}

// Example_scannedImage demonstrates OCR of a scanned invoice image with a
// local Tesseract engine.
func Example_scannedImage() {
	ctx := context.Background()

	data, err := os.ReadFile("fatura.jpg")
	if err != nil {
		log.Fatalf("Failed to read image: %v", err)
	}

	recognizer := ocr.NewTesseractRecognizer("tur+eng")

	// RecognizeOrEmpty never fails: a broken scan yields empty text and the
	// caller's workflow keeps going.
	text, quality := ocr.RecognizeOrEmpty(ctx, recognizer, zerolog.Nop(), data, ocr.KindImage)

	fmt.Printf("quality=%.2f text=%q\n", quality, text)
}

// Example_googleVision demonstrates the cloud provider. Credentials come
// from the environment.
func Example_googleVision() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	recognizer, err := ocr.NewGoogleVisionRecognizer(ctx)
	if err != nil {
		log.Fatalf("Failed to create recognizer: %v", err)
	}
	defer recognizer.Close()

	data, err := os.ReadFile("fatura.pdf")
	if err != nil {
		log.Fatalf("Failed to read PDF: %v", err)
	}

	result, err := recognizer.Recognize(ctx, data, ocr.KindPDF)
	if err != nil {
		log.Fatalf("Failed to recognize text: %v", err)
	}

	fmt.Println(result.Text)
}
