package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/ardcek/fatura-ocr-app/cmd"
	"github.com/ardcek/fatura-ocr-app/internal/config"
	"github.com/ardcek/fatura-ocr-app/internal/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg := config.Load()
	if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	appLog := logger.WithComponent("main")
	appLog.Info().Msg("Starting fatura-ocr")

	cmd.Execute()

	appLog.Info().Msg("fatura-ocr shutdown")
	os.Exit(0)
}
