package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ardcek/fatura-ocr-app/internal/config"
	"github.com/ardcek/fatura-ocr-app/internal/logger"
	"github.com/ardcek/fatura-ocr-app/internal/ocr"
)

var ocrCmd = &cobra.Command{
	Use:   "ocr [file]",
	Short: "Recover text from a PDF or image invoice",
	Long: `Recover the raw text of a single invoice document and print it.

PDF documents are read through their embedded text layer first. Scanned
documents go through the configured OCR provider (OCR_PROVIDER): a local
Tesseract install by default, or Google Cloud Vision when configured.

Environment variables for the google-vision provider:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string`,
	Example: `  # Recover text from a digital PDF to stdout
  fatura-ocr ocr fatura.pdf

  # Save recovered text to a file
  fatura-ocr ocr fatura.pdf -o fatura.txt

  # OCR a scanned image through Google Vision, output as JSON
  OCR_PROVIDER=google-vision fatura-ocr ocr scan.jpg --json

  # Process with custom timeout
  fatura-ocr ocr large-document.pdf --timeout 600`,
	Args: cobra.ExactArgs(1),
	RunE: runOCR,
}

// OCROutput is the JSON output structure when --json is used.
type OCROutput struct {
	Text               string  `json:"text"`
	Quality            float64 `json:"quality"`
	Pages              int     `json:"pages,omitempty"`
	Provider           string  `json:"provider,omitempty"`
	ProcessingDuration string  `json:"processing_duration,omitempty"`
	FileName           string  `json:"file_name"`
	FileSize           int64   `json:"file_size"`
}

func init() {
	rootCmd.AddCommand(ocrCmd)

	ocrCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	ocrCmd.Flags().Bool("json", false, "Output as JSON")
	ocrCmd.Flags().Int("timeout", 300, "Processing timeout in seconds")
}

func runOCR(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("ocr")

	outputPath, _ := cmd.Flags().GetString("output")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	path := args[0]

	log.Info().
		Str("file", path).
		Str("output", outputPath).
		Bool("json", jsonOutput).
		Int("timeout", timeoutSecs).
		Msg("Starting text recovery")

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

	kind := ocr.DetectKind(path, data)
	startTime := time.Now()

	result, err := recognizer.Recognize(ctx, data, kind)
	if err != nil {
		return handleRecognitionError(err, log)
	}

	log.Info().
		Str("kind", kind).
		Str("provider", result.Provider).
		Float64("quality", result.Quality).
		Dur("duration", time.Since(startTime)).
		Int("text_length", len(result.Text)).
		Msg("Text recovery completed successfully")

	return outputOCRResult(result, fileInfo, outputPath, jsonOutput, startTime, log)
}

// readDocumentFile validates the path and reads the whole document.
func readDocumentFile(path string, log zerolog.Logger) (os.FileInfo, []byte, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error().Str("file", path).Msg("Document not found")
			return nil, nil, fmt.Errorf("document not found: %s", path)
		}
		if os.IsPermission(err) {
			log.Error().Str("file", path).Msg("Permission denied accessing document")
			return nil, nil, fmt.Errorf("permission denied accessing document: %s", path)
		}
		return nil, nil, fmt.Errorf("error accessing document: %w", err)
	}

	if !fileInfo.Mode().IsRegular() {
		log.Error().Str("file", path).Msg("Path is not a regular file")
		return nil, nil, fmt.Errorf("path is not a regular file: %s", path)
	}

	if fileInfo.Size() == 0 {
		log.Error().Str("file", path).Msg("Document is empty")
		return nil, nil, fmt.Errorf("document is empty: %s", path)
	}

	if fileInfo.Size() > ocr.MaxFileSizeBytes {
		log.Error().
			Str("file", path).
			Int64("size", fileInfo.Size()).
			Int64("max_size", ocr.MaxFileSizeBytes).
			Msg("Document exceeds maximum size limit")
		return nil, nil, fmt.Errorf("document too large (%d bytes). Maximum size is %d bytes (20MB)",
			fileInfo.Size(), int64(ocr.MaxFileSizeBytes))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read document: %w", err)
	}
	return fileInfo, data, nil
}

// createContextWithTimeout creates a context with timeout and signal handling.
func createContextWithTimeout(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling processing")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// handleRecognitionError maps recognition failures to user-facing messages.
func handleRecognitionError(err error, log zerolog.Logger) error {
	switch {
	case errors.Is(err, ocr.ErrMissingCredentials):
		log.Error().Err(err).Msg("Google Cloud credentials not configured")
		return fmt.Errorf("google Cloud credentials not configured. Set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS")
	case errors.Is(err, ocr.ErrEmptyDocument):
		log.Error().Err(err).Msg("Document has no recoverable text")
		return fmt.Errorf("document has no text layer; retry with OCR_PROVIDER=tesseract or google-vision")
	case errors.Is(err, ocr.ErrUnsupportedKind):
		log.Error().Err(err).Msg("Document kind not supported by provider")
		return fmt.Errorf("the configured provider cannot process this document kind: %w", err)
	case errors.Is(err, context.DeadlineExceeded):
		log.Error().Err(err).Msg("Processing timed out")
		return fmt.Errorf("processing timed out; retry with a larger --timeout")
	default:
		log.Error().Err(err).Msg("Text recovery failed")
		return fmt.Errorf("text recovery failed: %w", err)
	}
}

func outputOCRResult(result *ocr.Result, fileInfo os.FileInfo, outputPath string, jsonOutput bool, startTime time.Time, log zerolog.Logger) error {
	var payload []byte
	if jsonOutput {
		out := OCROutput{
			Text:               result.Text,
			Quality:            result.Quality,
			Pages:              result.Pages,
			Provider:           result.Provider,
			ProcessingDuration: time.Since(startTime).String(),
			FileName:           filepath.Base(fileInfo.Name()),
			FileSize:           fileInfo.Size(),
		}
		var err error
		payload, err = json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		payload = append(payload, '\n')
	} else {
		payload = []byte(result.Text)
		if len(payload) > 0 && payload[len(payload)-1] != '\n' {
			payload = append(payload, '\n')
		}
	}

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
