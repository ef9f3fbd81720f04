// Package erp pushes finalized invoices to the downstream accounting system
// (a WOLVOX-style REST endpoint).
package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ardcek/fatura-ocr-app/internal/logger"
	"github.com/ardcek/fatura-ocr-app/pkg/models"
)

// Actions accepted by the downstream system.
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// Record is the flat invoice representation the downstream system accepts.
type Record struct {
	InvoiceNumber    string   `json:"invoice_number"`
	Date             string   `json:"date,omitempty"` // ISO 8601
	CompanyName      string   `json:"company_name"`
	CompanyTaxNumber string   `json:"company_tax_number"`
	TotalAmount      *float64 `json:"total_amount"`
	VATAmount        *float64 `json:"vat_amount"`
	NetAmount        *float64 `json:"net_amount"`
	Currency         string   `json:"currency"`
	Action           string   `json:"action"`
}

// Response is the downstream system's answer to a push.
type Response struct {
	Success bool           `json:"success"`
	ERPID   string         `json:"erp_id,omitempty"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// Client talks to the downstream accounting system over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient creates a client for the given base URL. An empty timeout
// selects 30 seconds.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.WithComponent("erp-client"),
	}
}

// BuildRecord flattens a stored invoice into the downstream wire format.
func BuildRecord(inv *models.Invoice, action string) Record {
	if action == "" {
		action = ActionCreate
	}
	rec := Record{
		TotalAmount: inv.TotalAmount,
		VATAmount:   inv.VATAmount,
		NetAmount:   inv.NetAmount,
		Currency:    inv.Currency,
		Action:      action,
	}
	if rec.Currency == "" {
		rec.Currency = "TRY"
	}
	if inv.InvoiceNumber != nil {
		rec.InvoiceNumber = *inv.InvoiceNumber
	}
	if inv.InvoiceDate != nil {
		rec.Date = inv.InvoiceDate.Format(time.RFC3339)
	}
	if inv.CompanyName != nil {
		rec.CompanyName = *inv.CompanyName
	}
	if inv.CompanyTaxNumber != nil {
		rec.CompanyTaxNumber = *inv.CompanyTaxNumber
	}
	return rec
}

// Send pushes one record to the downstream invoices endpoint. A transport
// failure or non-2xx status is an error; a well-formed response with
// success=false is returned to the caller as data, not as an error.
func (c *Client) Send(ctx context.Context, rec Record) (*Response, error) {
	const op = "erp.Send"

	body, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to marshal record: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/invoices", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	c.log.Debug().
		Str("invoice_number", rec.InvoiceNumber).
		Str("action", rec.Action).
		Msg("Sending invoice to ERP")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: unexpected status %d: %s", op, resp.StatusCode, respBody)
	}

	var out Response
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("%s: failed to parse response: %w", op, err)
	}

	c.log.Info().
		Str("invoice_number", rec.InvoiceNumber).
		Bool("success", out.Success).
		Str("erp_id", out.ERPID).
		Msg("ERP push completed")
	return &out, nil
}
