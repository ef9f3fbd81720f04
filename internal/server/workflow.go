package server

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/ardcek/fatura-ocr-app/internal/extract"
	"github.com/ardcek/fatura-ocr-app/internal/ocr"
	"github.com/ardcek/fatura-ocr-app/pkg/models"
)

// processInvoice runs the recognition + extraction workflow for one uploaded
// document. It is called on its own goroutine; failures mark the invoice
// errored rather than propagate.
func (s *Server) processInvoice(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	log := s.log.With().Str("invoice_id", id).Logger()
	log.Info().Msg("Starting invoice processing")

	inv, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		log.Error().Err(err).Msg("failed to load invoice for processing")
		return
	}

	data, err := os.ReadFile(inv.FilePath)
	if err != nil {
		log.Error().Err(err).Str("path", inv.FilePath).Msg("failed to read uploaded file")
		s.markErrored(ctx, id)
		return
	}

	kind := ocr.DetectKind(inv.Filename, data)
	text, quality := ocr.RecognizeOrEmpty(ctx, s.recognizer, log, data, kind)

	result := s.engine.Extract(ctx, text)
	s.applyExtraction(inv, text, quality, result)

	if err := s.invoices.SaveExtraction(ctx, inv); err != nil {
		log.Error().Err(err).Msg("failed to persist extraction")
		return
	}

	if len(result.LineItems) > 0 {
		items := make([]models.InvoiceLineItem, 0, len(result.LineItems))
		for _, li := range result.LineItems {
			items = append(items, models.InvoiceLineItem{
				InvoiceID:   id,
				Description: li.Description,
				Quantity:    li.Quantity,
				UnitPrice:   li.UnitPrice,
				Unit:        li.Unit,
				LineTotal:   li.Total,
			})
		}
		if err := s.invoices.ReplaceLineItems(ctx, id, items); err != nil {
			log.Error().Err(err).Msg("failed to persist line items")
		}
	}

	log.Info().
		Int("fields", len(result.Fields)).
		Int("line_items", len(result.LineItems)).
		Float64("confidence", inv.ConfidenceScore).
		Msg("Invoice processing completed")
}

// applyExtraction copies the engine's result onto the invoice record. The
// invoice-level confidence is the mean field confidence scaled by the
// recognition quality; a document with no recovered text ends at zero.
func (s *Server) applyExtraction(inv *models.Invoice, text string, quality float64, result extract.Result) {
	inv.RawText = text
	inv.Status = models.StatusOCRProcessed

	if v, ok := result.String(extract.FieldInvoiceNumber); ok {
		inv.InvoiceNumber = &v
	}
	if v, ok := result.String(extract.FieldDate); ok {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			inv.InvoiceDate = &t
		}
	}
	if v, ok := result.String(extract.FieldCompanyName); ok {
		inv.CompanyName = &v
	}
	if v, ok := result.String(extract.FieldTaxNumber); ok {
		inv.CompanyTaxNumber = &v
	}
	if v, ok := result.Float(extract.FieldTotalAmount); ok {
		inv.TotalAmount = &v
	} else if v, ok := result.Float(extract.FieldTotalAmountRule); ok {
		// The largest-amount heuristic backstops a missed total label.
		inv.TotalAmount = &v
	}
	if v, ok := result.Float(extract.FieldVATAmount); ok {
		inv.VATAmount = &v
	}
	if v, ok := result.Float(extract.FieldNetAmount); ok {
		inv.NetAmount = &v
	}
	if v, ok := result.String(extract.FieldCurrency); ok {
		inv.Currency = v
	}

	if fields, err := json.Marshal(result.Fields); err == nil {
		inv.ExtractedFields = fields
	}

	inv.ConfidenceScore = overallConfidence(result, quality)
}

// overallConfidence is the mean extracted-field confidence weighted by the
// recognition quality.
func overallConfidence(result extract.Result, quality float64) float64 {
	if len(result.Fields) == 0 {
		return 0
	}
	var sum float64
	for _, f := range result.Fields {
		sum += f.Confidence
	}
	mean := sum / float64(len(result.Fields))
	if quality <= 0 || quality > 1 {
		return mean
	}
	return mean * quality
}

func (s *Server) markErrored(ctx context.Context, id string) {
	if err := s.invoices.SetStatus(ctx, id, models.StatusError); err != nil {
		s.log.Error().Err(err).Str("invoice_id", id).Msg("failed to mark invoice errored")
	}
}
