package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ardcek/fatura-ocr-app/internal/config"
	"github.com/ardcek/fatura-ocr-app/internal/extract"
	"github.com/ardcek/fatura-ocr-app/internal/logger"
	"github.com/ardcek/fatura-ocr-app/internal/ocr"
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract structured invoice fields from a PDF or image",
	Long: `Recover the text of a single invoice and extract its structured fields:
invoice number, date, company name, tax number, amounts, VAT, IBAN and
line items. Each field carries a confidence score and the extraction
method that produced it.

Text recovery uses the configured OCR provider (see the ocr command).
Entity annotation is controlled by NLP_PROVIDER: a local prose tagger by
default, ChatGPT when set to "openai", or "none" to disable it.`,
	Example: `  # Extract fields from a digital PDF
  fatura-ocr extract fatura.pdf

  # Save the result to a JSON file
  fatura-ocr extract fatura.pdf -o fields.json

  # Extract from a scan with ChatGPT entity annotation
  OCR_PROVIDER=google-vision NLP_PROVIDER=openai fatura-ocr extract scan.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

// ExtractOutput is the JSON document the extract command prints.
type ExtractOutput struct {
	Fields             map[string]extract.Field `json:"fields"`
	LineItems          []extract.LineItem       `json:"line_items,omitempty"`
	RawText            string                   `json:"raw_text,omitempty"`
	Quality            float64                  `json:"quality"`
	ProcessingDuration string                   `json:"processing_duration"`
	FileName           string                   `json:"file_name"`
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	extractCmd.Flags().Bool("raw-text", false, "Include the recovered raw text in the output")
	extractCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("extract")

	outputPath, _ := cmd.Flags().GetString("output")
	includeRaw, _ := cmd.Flags().GetBool("raw-text")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	path := args[0]

	log.Info().
		Str("file", path).
		Str("output", outputPath).
		Int("timeout", timeoutSecs).
		Msg("Starting field extraction")

	fileInfo, data, err := readDocumentFile(path, log)
	if err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	cfg := config.Load()
	recognizer, closer, err := newRecognizer(ctx, cfg)
	if err != nil {
		return err
	}
	if closer != nil {
		defer func() {
			if closeErr := closer(); closeErr != nil {
				log.Warn().Err(closeErr).Msg("Failed to close recognizer")
			}
		}()
	}

	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}

	kind := ocr.DetectKind(path, data)
	startTime := time.Now()

	recognized, err := recognizer.Recognize(ctx, data, kind)
	if err != nil {
		return handleRecognitionError(err, log)
	}

	result := engine.Extract(ctx, recognized.Text)

	log.Info().
		Int("fields", len(result.Fields)).
		Int("line_items", len(result.LineItems)).
		Float64("quality", recognized.Quality).
		Dur("duration", time.Since(startTime)).
		Msg("Field extraction completed successfully")

	out := ExtractOutput{
		Fields:             result.Fields,
		LineItems:          result.LineItems,
		Quality:            recognized.Quality,
		ProcessingDuration: time.Since(startTime).String(),
		FileName:           filepath.Base(fileInfo.Name()),
	}
	if includeRaw {
		out.RawText = recognized.Text
	}

	payload, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	payload = append(payload, '\n')

	if outputPath == "" {
		_, err := os.Stdout.Write(payload)
		return err
	}

	if err := os.WriteFile(outputPath, payload, 0o644); err != nil {
		log.Error().Err(err).Str("output", outputPath).Msg("Failed to write output file")
		return fmt.Errorf("failed to write output file: %w", err)
	}
	log.Info().Str("output", outputPath).Int("bytes", len(payload)).Msg("Output written")
	return nil
}
