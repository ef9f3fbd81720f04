// Package server exposes the invoice processing workflow over HTTP.
//
// The API mirrors the invoice lifecycle: upload a document, process it
// (recognition + field extraction, run in the background), review the
// results, validate fields by hand, and push the finalized record to the
// downstream accounting system.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ardcek/fatura-ocr-app/internal/erp"
	"github.com/ardcek/fatura-ocr-app/internal/extract"
	"github.com/ardcek/fatura-ocr-app/internal/logger"
	"github.com/ardcek/fatura-ocr-app/internal/ocr"
	"github.com/ardcek/fatura-ocr-app/internal/store"
)

// Server wires the workflow collaborators behind the HTTP API.
type Server struct {
	engine     *extract.Engine
	recognizer ocr.Recognizer
	invoices   *store.InvoiceRepo
	validation *store.ValidationRepo
	erpLogs    *store.ERPLogRepo
	erpClient  *erp.Client
	uploadDir  string
	log        zerolog.Logger
}

// Config carries the server's collaborators.
type Config struct {
	Engine     *extract.Engine
	Recognizer ocr.Recognizer
	Invoices   *store.InvoiceRepo
	Validation *store.ValidationRepo
	ERPLogs    *store.ERPLogRepo
	ERPClient  *erp.Client
	UploadDir  string
}

// New creates a Server with its routes ready to mount.
func New(cfg Config) *Server {
	return &Server{
		engine:     cfg.Engine,
		recognizer: cfg.Recognizer,
		invoices:   cfg.Invoices,
		validation: cfg.Validation,
		erpLogs:    cfg.ERPLogs,
		erpClient:  cfg.ERPClient,
		uploadDir:  cfg.UploadDir,
		log:        logger.WithComponent("http-server"),
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", s.health)
	r.POST("/upload", s.upload)
	r.POST("/process/:id", s.process)
	r.GET("/results/:id", s.results)
	r.POST("/validate/:id", s.validate)
	r.GET("/invoices", s.listInvoices)
	r.POST("/erp/send/:id", s.sendToERP)

	return r
}

// Run serves the API until the context is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// requestLogger logs one line per request through the shared zerolog setup.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
