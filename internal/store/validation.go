package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ardcek/fatura-ocr-app/pkg/models"
)

// ValidationRepo stores the per-field human correction history.
type ValidationRepo struct {
	pool *pgxpool.Pool
}

// NewValidationRepo creates a validation-record repository.
func NewValidationRepo(pool *pgxpool.Pool) *ValidationRepo {
	return &ValidationRepo{pool: pool}
}

// Add appends correction records for one review session.
func (r *ValidationRepo) Add(ctx context.Context, records []models.ValidationRecord) error {
	for _, rec := range records {
		confidenceAfter := rec.ConfidenceAfter
		if confidenceAfter == 0 {
			confidenceAfter = 1.0
		}
		_, err := r.pool.Exec(ctx, `
			INSERT INTO validation_records
				(invoice_id, user_id, field_name, original_value, corrected_value, confidence_before, confidence_after)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			rec.InvoiceID, rec.UserID, rec.FieldName, rec.OriginalValue, rec.CorrectedValue,
			rec.ConfidenceBefore, confidenceAfter,
		)
		if err != nil {
			return fmt.Errorf("failed to insert validation record: %w", err)
		}
	}
	return nil
}

// ListByInvoice returns an invoice's correction history, oldest first.
func (r *ValidationRepo) ListByInvoice(ctx context.Context, invoiceID string) ([]models.ValidationRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_id, user_id, field_name, original_value, corrected_value,
		       confidence_before, confidence_after, created_at
		FROM validation_records WHERE invoice_id = $1 ORDER BY created_at, id`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list validation records: %w", err)
	}
	defer rows.Close()

	var records []models.ValidationRecord
	for rows.Next() {
		var rec models.ValidationRecord
		if err := rows.Scan(&rec.ID, &rec.InvoiceID, &rec.UserID, &rec.FieldName,
			&rec.OriginalValue, &rec.CorrectedValue, &rec.ConfidenceBefore,
			&rec.ConfidenceAfter, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan validation record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
