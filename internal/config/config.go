package config

import (
	"os"
	"strconv"
	"time"

	"github.com/ardcek/fatura-ocr-app/internal/logger"
)

type Config struct {
	// HTTP server
	ListenAddr string
	UploadDir  string

	// Database
	DatabaseURL string

	// Recognition provider: "tesseract", "pdf-text" or "google-vision".
	// The server always prefers the PDF text layer for PDFs and uses this
	// provider for scans.
	OCRProvider        string
	TesseractLanguages string

	// Entity annotation provider: "prose", "openai" or "none".
	NLPProvider string

	// OpenAI Configuration (used when NLPProvider is "openai")
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAITemperature float64

	// ERP Configuration
	ERPBaseURL string
	ERPAPIKey  string
	ERPTimeout time.Duration

	// Logging Configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load reads configuration from the environment. Requirements are validated
// per command rather than here, so offline commands (plain text extraction)
// run without a database or ERP endpoint configured.
func Load() *Config {
	return &Config{
		ListenAddr:         getEnv("LISTEN_ADDR", ":8000"),
		UploadDir:          getEnv("UPLOAD_DIR", "uploads"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		OCRProvider:        getEnv("OCR_PROVIDER", "tesseract"),
		TesseractLanguages: getEnv("TESSERACT_LANGUAGES", "tur+eng"),
		NLPProvider:        getEnv("NLP_PROVIDER", "prose"),
		OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		OpenAITemperature:  getEnvFloat("OPENAI_TEMPERATURE", 0.1),
		ERPBaseURL:         getEnv("ERP_BASE_URL", ""),
		ERPAPIKey:          getEnv("ERP_API_KEY", ""),
		ERPTimeout:         getEnvDuration("ERP_TIMEOUT", 30*time.Second),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:      getEnv("LOG_TIME_FORMAT", time.RFC3339),
		LogOutput:          getEnv("LOG_OUTPUT", "stdout"),
	}
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
