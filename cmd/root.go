package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ardcek/fatura-ocr-app/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "fatura-ocr",
	Short: "Turkish invoice OCR and field extraction",
	Long: `fatura-ocr recovers text from scanned or digital Turkish invoices and
extracts structured fields (invoice number, date, company, tax number,
amounts, line items) with per-field confidence scores.

It runs as a one-shot CLI for single documents or as an HTTP API that
stores results in PostgreSQL and forwards validated invoices to an ERP.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("fatura-ocr executed")

		fmt.Println("fatura-ocr: Turkish invoice OCR and field extraction")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}
