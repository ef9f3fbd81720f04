package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ardcek/fatura-ocr-app/internal/extract"
	"github.com/ardcek/fatura-ocr-app/pkg/models"
)

// ErrNotFound is returned when no invoice matches the requested ID.
var ErrNotFound = errors.New("invoice not found")

// ErrUnknownField is returned when a correction names a field that has no
// column on the invoice.
var ErrUnknownField = errors.New("unknown invoice field")

// ErrInvalidValue is returned when a correction's value does not parse as
// the field's type.
var ErrInvalidValue = errors.New("invalid field value")

// InvoiceRepo stores invoices and their line items.
type InvoiceRepo struct {
	pool *pgxpool.Pool
}

// NewInvoiceRepo creates an invoice repository.
func NewInvoiceRepo(pool *pgxpool.Pool) *InvoiceRepo {
	return &InvoiceRepo{pool: pool}
}

const invoiceColumns = `
	id, filename, file_path, file_type, status,
	raw_text, confidence_score,
	invoice_number, invoice_date, company_name, company_tax_number,
	total_amount, vat_amount, net_amount, currency,
	extracted_fields, validation_data,
	erp_id, erp_response,
	created_at, updated_at, processed_at, validated_at, sent_to_erp_at`

// Create inserts a freshly uploaded invoice.
func (r *InvoiceRepo) Create(ctx context.Context, inv *models.Invoice) error {
	query := `
		INSERT INTO invoices (id, filename, file_path, file_type, status, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	currency := inv.Currency
	if currency == "" {
		currency = "TRY"
	}
	err := r.pool.QueryRow(ctx, query,
		inv.ID, inv.Filename, inv.FilePath, inv.FileType, models.StatusUploaded, currency,
	).Scan(&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	inv.Status = models.StatusUploaded
	inv.Currency = currency
	return nil
}

// GetByID loads one invoice.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	inv, err := scanInvoice(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load invoice: %w", err)
	}
	return inv, nil
}

// List returns invoices newest first, optionally filtered by status.
func (r *InvoiceRepo) List(ctx context.Context, status string, limit, offset int) ([]*models.Invoice, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// ListAll returns every invoice, optionally filtered by status, oldest first.
// Meant for exports where pagination would truncate the result.
func (r *InvoiceRepo) ListAll(ctx context.Context, status string) ([]*models.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*models.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// SaveExtraction records the recognition and extraction outcome and advances
// the invoice to ocr_processed (or error when err text recovery failed).
func (r *InvoiceRepo) SaveExtraction(ctx context.Context, inv *models.Invoice) error {
	query := `
		UPDATE invoices SET
			status = $2,
			raw_text = $3,
			confidence_score = $4,
			invoice_number = $5,
			invoice_date = $6,
			company_name = $7,
			company_tax_number = $8,
			total_amount = $9,
			vat_amount = $10,
			net_amount = $11,
			currency = $12,
			extracted_fields = $13,
			processed_at = NOW(),
			updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		inv.ID, inv.Status, inv.RawText, inv.ConfidenceScore,
		inv.InvoiceNumber, inv.InvoiceDate, inv.CompanyName, inv.CompanyTaxNumber,
		inv.TotalAmount, inv.VATAmount, inv.NetAmount, inv.Currency,
		inv.ExtractedFields,
	)
	if err != nil {
		return fmt.Errorf("failed to save extraction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ReplaceLineItems rewrites the invoice's line items in one transaction.
func (r *InvoiceRepo) ReplaceLineItems(ctx context.Context, invoiceID string, items []models.InvoiceLineItem) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM invoice_line_items WHERE invoice_id = $1`, invoiceID); err != nil {
		return fmt.Errorf("failed to clear line items: %w", err)
	}
	for _, item := range items {
		_, err := tx.Exec(ctx, `
			INSERT INTO invoice_line_items (invoice_id, description, quantity, unit_price, unit, vat_rate, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			invoiceID, item.Description, item.Quantity, item.UnitPrice, item.Unit, item.VATRate, item.LineTotal,
		)
		if err != nil {
			return fmt.Errorf("failed to insert line item: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// ListLineItems returns the invoice's line items in insertion order.
func (r *InvoiceRepo) ListLineItems(ctx context.Context, invoiceID string) ([]models.InvoiceLineItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_id, description, quantity, unit_price, unit, vat_rate, line_total
		FROM invoice_line_items WHERE invoice_id = $1 ORDER BY id`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list line items: %w", err)
	}
	defer rows.Close()

	var items []models.InvoiceLineItem
	for rows.Next() {
		var item models.InvoiceLineItem
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.Description, &item.Quantity,
			&item.UnitPrice, &item.Unit, &item.VATRate, &item.LineTotal); err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ApplyValidation stores the reviewer's corrections, lifts the confidence to
// 1.0 and advances the invoice to validated.
func (r *InvoiceRepo) ApplyValidation(ctx context.Context, id string, validationData []byte) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoices SET
			status = $2,
			validation_data = $3,
			confidence_score = 1.0,
			validated_at = NOW(),
			updated_at = NOW()
		WHERE id = $1`,
		id, models.StatusValidated, validationData,
	)
	if err != nil {
		return fmt.Errorf("failed to apply validation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkSentToERP records the downstream system's response on the invoice.
func (r *InvoiceRepo) MarkSentToERP(ctx context.Context, id, erpID string, response []byte) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE invoices SET
			status = $2,
			erp_id = $3,
			erp_response = $4,
			sent_to_erp_at = NOW(),
			updated_at = NOW()
		WHERE id = $1`,
		id, models.StatusSentToERP, erpID, response,
	)
	if err != nil {
		return fmt.Errorf("failed to mark invoice sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CorrectField overwrites one extracted column with a reviewer-supplied
// value. Text fields are stored verbatim; amounts and dates are parsed with
// the same normalizers the extraction pipeline uses, so "1.234,56" and
// "15.03.2024" are accepted as typed.
func (r *InvoiceRepo) CorrectField(ctx context.Context, id, field, value string) error {
	var query string
	var arg any

	switch field {
	case "invoice_number":
		query, arg = `UPDATE invoices SET invoice_number = $2, updated_at = NOW() WHERE id = $1`, value
	case "company_name":
		query, arg = `UPDATE invoices SET company_name = $2, updated_at = NOW() WHERE id = $1`, value
	case "tax_number", "company_tax_number":
		query, arg = `UPDATE invoices SET company_tax_number = $2, updated_at = NOW() WHERE id = $1`, value
	case "currency":
		query, arg = `UPDATE invoices SET currency = $2, updated_at = NOW() WHERE id = $1`, extract.NormalizeCurrency(value)
	case "date", "invoice_date":
		iso, ok := extract.ParseDate(value)
		if !ok {
			return fmt.Errorf("%w: %q is not a recognizable date", ErrInvalidValue, value)
		}
		t, err := time.Parse("2006-01-02", iso)
		if err != nil {
			return fmt.Errorf("%w: %q is not a recognizable date", ErrInvalidValue, value)
		}
		query, arg = `UPDATE invoices SET invoice_date = $2, updated_at = NOW() WHERE id = $1`, t
	case "total_amount", "vat_amount", "net_amount":
		amount, ok := extract.ParseAmount(value)
		if !ok {
			return fmt.Errorf("%w: %q is not a recognizable amount", ErrInvalidValue, value)
		}
		query = fmt.Sprintf(`UPDATE invoices SET %s = $2, updated_at = NOW() WHERE id = $1`, field)
		arg = amount
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	tag, err := r.pool.Exec(ctx, query, id, arg)
	if err != nil {
		return fmt.Errorf("failed to correct field: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus moves the invoice to the given status.
func (r *InvoiceRepo) SetStatus(ctx context.Context, id, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE invoices SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// rowScanner is satisfied by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*models.Invoice, error) {
	var inv models.Invoice
	var rawText *string
	var processedAt, validatedAt, sentToERPAt *time.Time
	var erpID *string

	err := row.Scan(
		&inv.ID, &inv.Filename, &inv.FilePath, &inv.FileType, &inv.Status,
		&rawText, &inv.ConfidenceScore,
		&inv.InvoiceNumber, &inv.InvoiceDate, &inv.CompanyName, &inv.CompanyTaxNumber,
		&inv.TotalAmount, &inv.VATAmount, &inv.NetAmount, &inv.Currency,
		&inv.ExtractedFields, &inv.ValidationData,
		&erpID, &inv.ERPResponse,
		&inv.CreatedAt, &inv.UpdatedAt, &processedAt, &validatedAt, &sentToERPAt,
	)
	if err != nil {
		return nil, err
	}
	if rawText != nil {
		inv.RawText = *rawText
	}
	if erpID != nil {
		inv.ERPID = *erpID
	}
	inv.ProcessedAt = processedAt
	inv.ValidatedAt = validatedAt
	inv.SentToERPAt = sentToERPAt
	return &inv, nil
}
