package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ardcek/fatura-ocr-app/internal/config"
	"github.com/ardcek/fatura-ocr-app/internal/erp"
	"github.com/ardcek/fatura-ocr-app/internal/logger"
	"github.com/ardcek/fatura-ocr-app/internal/server"
	"github.com/ardcek/fatura-ocr-app/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the invoice processing HTTP API",
	Long: `Start the HTTP API that accepts invoice uploads, runs recognition and
field extraction in the background, stores results in PostgreSQL and
forwards validated invoices to the configured ERP.

Required environment variables:
  DATABASE_URL - PostgreSQL connection string

Optional:
  LISTEN_ADDR    - Listen address (default :8000)
  UPLOAD_DIR     - Directory for uploaded documents (default uploads)
  OCR_PROVIDER   - tesseract, google-vision or pdf-text (default tesseract)
  NLP_PROVIDER   - prose, openai or none (default prose)
  ERP_BASE_URL   - ERP endpoint for the /erp/send route
  ERP_API_KEY    - Bearer token for the ERP endpoint`,
	Example: `  # Serve with local Tesseract and prose annotation
  DATABASE_URL=postgres://localhost/fatura fatura-ocr serve

  # Serve with Google Vision and ChatGPT annotation
  OCR_PROVIDER=google-vision NLP_PROVIDER=openai fatura-ocr serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")
	cfg := config.Load()

	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required to run the API server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := store.EnsureSchema(ctx, pool); err != nil {
		return fmt.Errorf("failed to ensure database schema: %w", err)
	}

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

	if cfg.ERPBaseURL == "" {
		log.Warn().Msg("ERP_BASE_URL not set, /erp/send will fail until configured")
	}
	erpClient := erp.NewClient(cfg.ERPBaseURL, cfg.ERPAPIKey, cfg.ERPTimeout)

	srv := server.New(server.Config{
		Engine:     engine,
		Recognizer: recognizer,
		Invoices:   store.NewInvoiceRepo(pool),
		Validation: store.NewValidationRepo(pool),
		ERPLogs:    store.NewERPLogRepo(pool),
		ERPClient:  erpClient,
		UploadDir:  cfg.UploadDir,
	})

	log.Info().
		Str("addr", cfg.ListenAddr).
		Str("ocr_provider", cfg.OCRProvider).
		Str("nlp_provider", cfg.NLPProvider).
		Msg("Starting invoice API server")

	return srv.Run(ctx, cfg.ListenAddr)
}
