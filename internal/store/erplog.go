package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ardcek/fatura-ocr-app/pkg/models"
)

// ERPLogRepo stores the attempt-by-attempt ERP integration trail.
type ERPLogRepo struct {
	pool *pgxpool.Pool
}

// NewERPLogRepo creates an ERP integration log repository.
func NewERPLogRepo(pool *pgxpool.Pool) *ERPLogRepo {
	return &ERPLogRepo{pool: pool}
}

// Add records one push attempt, successful or not.
func (r *ERPLogRepo) Add(ctx context.Context, entry *models.ERPIntegrationLog) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO erp_integration_logs
			(invoice_id, action, request_data, response_data, success, error_message)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		entry.InvoiceID, entry.Action, entry.RequestData, entry.ResponseData,
		entry.Success, entry.ErrorMessage,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert ERP log: %w", err)
	}
	return nil
}

// ListByInvoice returns all push attempts for one invoice, oldest first.
func (r *ERPLogRepo) ListByInvoice(ctx context.Context, invoiceID string) ([]models.ERPIntegrationLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, invoice_id, action, request_data, response_data, success, error_message, created_at
		FROM erp_integration_logs WHERE invoice_id = $1 ORDER BY created_at, id`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ERP logs: %w", err)
	}
	defer rows.Close()

	var entries []models.ERPIntegrationLog
	for rows.Next() {
		var entry models.ERPIntegrationLog
		var errMsg *string
		if err := rows.Scan(&entry.ID, &entry.InvoiceID, &entry.Action, &entry.RequestData,
			&entry.ResponseData, &entry.Success, &errMsg, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ERP log: %w", err)
		}
		if errMsg != nil {
			entry.ErrorMessage = *errMsg
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
