package cmd

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/ardcek/fatura-ocr-app/internal/config"
	"github.com/ardcek/fatura-ocr-app/internal/extract"
	"github.com/ardcek/fatura-ocr-app/internal/logger"
	"github.com/ardcek/fatura-ocr-app/internal/nlp"
	"github.com/ardcek/fatura-ocr-app/internal/ocr"
)

// newRecognizer builds the recognition stack for the configured provider.
// PDFs always try the embedded text layer first; the provider handles scans.
// The returned closer releases provider resources and may be nil.
func newRecognizer(ctx context.Context, cfg *config.Config) (ocr.Recognizer, func() error, error) {
	pdfText := ocr.NewPDFTextRecognizer()

	switch cfg.OCRProvider {
	case "tesseract":
		return &ocr.Router{
			PDF:   pdfText,
			Image: ocr.NewTesseractRecognizer(cfg.TesseractLanguages),
		}, nil, nil
	case "google-vision":
		gv, err := ocr.NewGoogleVisionRecognizer(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Google Vision recognizer: %w", err)
		}
		return &ocr.Router{
			PDF:   ocr.Fallback{pdfText, gv},
			Image: gv,
		}, gv.Close, nil
	case "pdf-text":
		return &ocr.Router{PDF: pdfText}, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown OCR provider %q (want tesseract, google-vision or pdf-text)", cfg.OCRProvider)
	}
}

// newAnnotator builds the entity annotation provider. "none" disables the
// entity pass entirely.
func newAnnotator(cfg *config.Config) (extract.Annotator, error) {
	switch cfg.NLPProvider {
	case "prose":
		return nlp.NewProseAnnotator(), nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("NLP provider openai requires OPENAI_API_KEY")
		}
		return nlp.NewOpenAIAnnotator(openai.NewClient(cfg.OpenAIAPIKey), nlp.OpenAIConfig{
			Model:       cfg.OpenAIModel,
			Temperature: float32(cfg.OpenAITemperature),
		}), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown NLP provider %q (want prose, openai or none)", cfg.NLPProvider)
	}
}

// newEngine assembles the extraction engine from configuration.
func newEngine(cfg *config.Config) (*extract.Engine, error) {
	annotator, err := newAnnotator(cfg)
	if err != nil {
		return nil, err
	}
	return extract.NewEngine(extract.Config{
		Annotator: annotator,
		Logger:    logger.WithComponent("extract"),
	}), nil
}
