package models

import "time"

// Invoice lifecycle statuses. The workflow moves forward through these;
// StatusError is reachable from any step.
const (
	StatusUploaded     = "uploaded"
	StatusOCRProcessed = "ocr_processed"
	StatusValidated    = "validated"
	StatusSentToERP    = "sent_to_erp"
	StatusERPConfirmed = "erp_confirmed"
	StatusError        = "error"
)

// Invoice is one uploaded document and everything recovered from it.
type Invoice struct {
	// Core identifiers
	ID       string `json:"id"`        // UUID assigned at upload
	Filename string `json:"filename"`  // Original upload filename
	FilePath string `json:"file_path"` // Where the uploaded bytes live on disk
	FileType string `json:"file_type"` // "pdf" or "image"
	Status   string `json:"status"`    // One of the Status* constants

	// Recognition results
	RawText         string  `json:"raw_text,omitempty"` // Text recovered by OCR / text-layer extraction
	ConfidenceScore float64 `json:"confidence_score"`   // Mean confidence across extracted fields

	// Extracted invoice attributes. Pointers distinguish "not extracted"
	// from zero values.
	InvoiceNumber    *string    `json:"invoice_number,omitempty"`
	InvoiceDate      *time.Time `json:"invoice_date,omitempty"`
	CompanyName      *string    `json:"company_name,omitempty"`
	CompanyTaxNumber *string    `json:"company_tax_number,omitempty"`
	TotalAmount      *float64   `json:"total_amount,omitempty"`
	VATAmount        *float64   `json:"vat_amount,omitempty"`
	NetAmount        *float64   `json:"net_amount,omitempty"`
	Currency         string     `json:"currency"` // Defaults to TRY

	// ExtractedFields is the full per-field extraction result (values,
	// confidences, methods) as produced by the engine, stored as JSON.
	ExtractedFields []byte `json:"extracted_fields,omitempty"`

	// ValidationData holds the reviewer's corrections as JSON.
	ValidationData []byte `json:"validation_data,omitempty"`

	// ERP integration
	ERPID       string `json:"erp_id,omitempty"` // Identifier assigned by the downstream system
	ERPResponse []byte `json:"erp_response,omitempty"`

	// Timestamps
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	ValidatedAt *time.Time `json:"validated_at,omitempty"`
	SentToERPAt *time.Time `json:"sent_to_erp_at,omitempty"`
}

// InvoiceLineItem is one row of an invoice's goods/services table.
type InvoiceLineItem struct {
	ID          int64   `json:"id"`
	InvoiceID   string  `json:"invoice_id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Unit        string  `json:"unit"` // adet, kg, m2 etc.
	VATRate     float64 `json:"vat_rate,omitempty"`
	LineTotal   float64 `json:"line_total"`
}

// ValidationRecord is one human correction to one extracted field. The
// correction history is kept per field, so repeated reviews append rather
// than overwrite.
type ValidationRecord struct {
	ID               int64     `json:"id"`
	InvoiceID        string    `json:"invoice_id"`
	UserID           string    `json:"user_id"`
	FieldName        string    `json:"field_name"`
	OriginalValue    string    `json:"original_value"`
	CorrectedValue   string    `json:"corrected_value"`
	ConfidenceBefore float64   `json:"confidence_before"`
	ConfidenceAfter  float64   `json:"confidence_after"` // 1.0 after human review
	CreatedAt        time.Time `json:"created_at"`
}

// ERPIntegrationLog records one attempt to push an invoice downstream,
// successful or not.
type ERPIntegrationLog struct {
	ID           int64     `json:"id"`
	InvoiceID    string    `json:"invoice_id"`
	Action       string    `json:"action"` // CREATE, UPDATE, DELETE
	RequestData  []byte    `json:"request_data,omitempty"`
	ResponseData []byte    `json:"response_data,omitempty"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
