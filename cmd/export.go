package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ardcek/fatura-ocr-app/internal/config"
	"github.com/ardcek/fatura-ocr-app/internal/export"
	"github.com/ardcek/fatura-ocr-app/internal/logger"
	"github.com/ardcek/fatura-ocr-app/internal/sheets"
	"github.com/ardcek/fatura-ocr-app/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored invoices to an XLSX workbook",
	Long: `Export the invoices stored in PostgreSQL to an XLSX workbook, one row
per invoice with the extracted fields and confidence score.

Required environment variables:
  DATABASE_URL - PostgreSQL connection string`,
	Example: `  # Export all invoices
  fatura-ocr export -o invoices.xlsx

  # Export only validated invoices
  fatura-ocr export --status validated -o validated.xlsx

  # Append validated invoices to a shared Google Sheet instead
  fatura-ocr export --status validated --sheet "https://docs.google.com/spreadsheets/d/SHEET_ID/edit"`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "invoices.xlsx", "Output file path")
	exportCmd.Flags().String("status", "", "Only export invoices with this status")
	exportCmd.Flags().String("sheet", "", "Google Sheets URL to append rows to instead of writing a workbook")
	exportCmd.Flags().String("sheet-name", "Faturalar", "Sheet tab name used with --sheet")
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("export")

	outputPath, _ := cmd.Flags().GetString("output")
	status, _ := cmd.Flags().GetString("status")
	sheetURL, _ := cmd.Flags().GetString("sheet")
	sheetName, _ := cmd.Flags().GetString("sheet-name")

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required to export invoices")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	repo := store.NewInvoiceRepo(pool)

	if sheetURL != "" {
		invs, err := repo.ListAll(ctx, status)
		if err != nil {
			return fmt.Errorf("failed to list invoices: %w", err)
		}
		sheetSvc, err := sheets.NewService(ctx, sheetURL)
		if err != nil {
			return fmt.Errorf("failed to create sheets exporter: %w", err)
		}
		if err := sheetSvc.AppendInvoices(ctx, invs, sheetName); err != nil {
			return fmt.Errorf("sheet export failed: %w", err)
		}
		fmt.Printf("Appended %d invoices to Google Sheet %q\n", len(invs), sheetName)
		return nil
	}

	svc := export.NewService(repo, log)
	data, err := svc.ExportXLSX(ctx, status)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		log.Error().Err(err).Str("output", outputPath).Msg("Failed to write workbook")
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	log.Info().Str("output", outputPath).Int("bytes", len(data)).Msg("Workbook written")
	fmt.Printf("Exported invoices to %s\n", outputPath)
	return nil
}
