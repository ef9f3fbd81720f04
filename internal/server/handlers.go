package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ardcek/fatura-ocr-app/internal/erp"
	"github.com/ardcek/fatura-ocr-app/internal/store"
	"github.com/ardcek/fatura-ocr-app/pkg/models"
)

// allowedExtensions are the upload formats the workflow accepts.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// processTimeout bounds one background recognition + extraction run.
const processTimeout = 2 * time.Minute

// upload stores the document, creates the invoice record and starts
// background processing.
func (s *Server) upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unsupported file format: %s", ext)})
		return
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to prepare upload directory"})
		return
	}

	id := uuid.NewString()
	path := filepath.Join(s.uploadDir, id+ext)
	if err := c.SaveUploadedFile(file, path); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save file"})
		return
	}

	fileType := "image"
	if ext == ".pdf" {
		fileType = "pdf"
	}
	inv := &models.Invoice{
		ID:       id,
		Filename: file.Filename,
		FilePath: path,
		FileType: fileType,
	}
	if err := s.invoices.Create(c.Request.Context(), inv); err != nil {
		s.log.Error().Err(err).Msg("failed to create invoice record")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save invoice"})
		return
	}

	go s.processInvoice(inv.ID)

	c.JSON(http.StatusOK, inv)
}

// process re-runs recognition and extraction for an existing invoice.
func (s *Server) process(c *gin.Context) {
	id := c.Param("id")
	if _, err := s.invoices.GetByID(c.Request.Context(), id); err != nil {
		s.respondStoreError(c, err)
		return
	}

	go s.processInvoice(id)

	c.JSON(http.StatusOK, gin.H{"message": "processing started", "invoice_id": id})
}

// results returns the invoice with its line items and validation history.
func (s *Server) results(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	inv, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	items, err := s.invoices.ListLineItems(ctx, id)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	history, err := s.validation.ListByInvoice(ctx, id)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invoice":            inv,
		"line_items":         items,
		"validation_history": history,
	})
}

// validationRequest is one human field correction.
type validationRequest struct {
	FieldName      string `json:"field_name" binding:"required"`
	CorrectedValue string `json:"corrected_value" binding:"required"`
	UserID         string `json:"user_id"`
}

// validate applies a reviewer's correction to one field and records it.
func (s *Server) validate(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	var req validationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.UserID == "" {
		req.UserID = "admin"
	}

	inv, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	original, confidence := s.fieldSnapshot(inv, req.FieldName)

	if err := s.invoices.CorrectField(ctx, id, req.FieldName, req.CorrectedValue); err != nil {
		if errors.Is(err, store.ErrUnknownField) || errors.Is(err, store.ErrInvalidValue) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.respondStoreError(c, err)
		return
	}

	err = s.validation.Add(ctx, []models.ValidationRecord{{
		InvoiceID:        id,
		UserID:           req.UserID,
		FieldName:        req.FieldName,
		OriginalValue:    original,
		CorrectedValue:   req.CorrectedValue,
		ConfidenceBefore: confidence,
		ConfidenceAfter:  1.0,
	}})
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	validationData, _ := json.Marshal(map[string]string{req.FieldName: req.CorrectedValue})
	if err := s.invoices.ApplyValidation(ctx, id, validationData); err != nil {
		s.respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "field validated",
		"field":   req.FieldName,
		"value":   req.CorrectedValue,
	})
}

// listInvoices returns invoices newest first; status, limit and skip come
// from the query string.
func (s *Server) listInvoices(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	status := c.Query("status")

	invoices, err := s.invoices.List(c.Request.Context(), status, limit, skip)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if invoices == nil {
		invoices = []*models.Invoice{}
	}
	c.JSON(http.StatusOK, invoices)
}

// erpRequest selects the action for a downstream push.
type erpRequest struct {
	Action string `json:"action"`
}

// sendToERP starts a background push of the invoice to the accounting
// system.
func (s *Server) sendToERP(c *gin.Context) {
	id := c.Param("id")

	// An empty or absent body defaults to CREATE.
	var req erpRequest
	_ = c.ShouldBindJSON(&req)
	if req.Action == "" {
		req.Action = erp.ActionCreate
	}

	if _, err := s.invoices.GetByID(c.Request.Context(), id); err != nil {
		s.respondStoreError(c, err)
		return
	}

	go s.pushToERP(id, req.Action)

	c.JSON(http.StatusOK, gin.H{"message": "ERP send started", "invoice_id": id})
}

// fieldSnapshot reads the current value and confidence of one field for the
// validation trail.
func (s *Server) fieldSnapshot(inv *models.Invoice, fieldName string) (string, float64) {
	value := ""
	switch fieldName {
	case "invoice_number":
		if inv.InvoiceNumber != nil {
			value = *inv.InvoiceNumber
		}
	case "date", "invoice_date":
		if inv.InvoiceDate != nil {
			value = inv.InvoiceDate.Format("2006-01-02")
		}
	case "company_name":
		if inv.CompanyName != nil {
			value = *inv.CompanyName
		}
	case "tax_number", "company_tax_number":
		if inv.CompanyTaxNumber != nil {
			value = *inv.CompanyTaxNumber
		}
	case "total_amount":
		if inv.TotalAmount != nil {
			value = strconv.FormatFloat(*inv.TotalAmount, 'f', -1, 64)
		}
	case "vat_amount":
		if inv.VATAmount != nil {
			value = strconv.FormatFloat(*inv.VATAmount, 'f', -1, 64)
		}
	case "net_amount":
		if inv.NetAmount != nil {
			value = strconv.FormatFloat(*inv.NetAmount, 'f', -1, 64)
		}
	case "currency":
		value = inv.Currency
	}

	confidence := 0.0
	if len(inv.ExtractedFields) > 0 {
		var fields map[string]struct {
			Confidence float64 `json:"confidence"`
		}
		if json.Unmarshal(inv.ExtractedFields, &fields) == nil {
			confidence = fields[fieldName].Confidence
		}
	}
	return value, confidence
}

func (s *Server) respondStoreError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
		return
	}
	s.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("storage error")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// pushToERP sends one invoice downstream and records the attempt.
func (s *Server) pushToERP(id, action string) {
	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	log := s.log.With().Str("invoice_id", id).Str("action", action).Logger()
	log.Info().Msg("Starting ERP push")

	inv, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		log.Error().Err(err).Msg("failed to load invoice for ERP push")
		return
	}

	rec := erp.BuildRecord(inv, action)
	reqData, _ := json.Marshal(rec)

	entry := &models.ERPIntegrationLog{
		InvoiceID:   id,
		Action:      action,
		RequestData: reqData,
	}

	resp, err := s.erpClient.Send(ctx, rec)
	if err != nil {
		entry.ErrorMessage = err.Error()
		if logErr := s.erpLogs.Add(ctx, entry); logErr != nil {
			log.Error().Err(logErr).Msg("failed to record ERP attempt")
		}
		if stErr := s.invoices.SetStatus(ctx, id, models.StatusError); stErr != nil {
			log.Error().Err(stErr).Msg("failed to mark invoice errored")
		}
		log.Error().Err(err).Msg("ERP push failed")
		return
	}

	respData, _ := json.Marshal(resp)
	entry.ResponseData = respData
	entry.Success = resp.Success
	if !resp.Success {
		entry.ErrorMessage = resp.Message
	}
	if err := s.erpLogs.Add(ctx, entry); err != nil {
		log.Error().Err(err).Msg("failed to record ERP attempt")
	}

	if resp.Success {
		if err := s.invoices.MarkSentToERP(ctx, id, resp.ERPID, respData); err != nil {
			log.Error().Err(err).Msg("failed to mark invoice sent")
			return
		}
		log.Info().Str("erp_id", resp.ERPID).Msg("ERP push completed")
	} else {
		if err := s.invoices.SetStatus(ctx, id, models.StatusError); err != nil {
			log.Error().Err(err).Msg("failed to mark invoice errored")
		}
		log.Warn().Str("message", resp.Message).Msg("ERP rejected the invoice")
	}
}
