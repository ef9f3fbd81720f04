package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is the full DDL. Every statement is idempotent so EnsureSchema can
// run on every start.
const schema = `
CREATE TABLE IF NOT EXISTS invoices (
	id                 UUID PRIMARY KEY,
	filename           TEXT NOT NULL,
	file_path          TEXT NOT NULL,
	file_type          TEXT NOT NULL,
	status             TEXT NOT NULL DEFAULT 'uploaded',
	raw_text           TEXT,
	confidence_score   DOUBLE PRECISION NOT NULL DEFAULT 0,
	invoice_number     TEXT,
	invoice_date       TIMESTAMPTZ,
	company_name       TEXT,
	company_tax_number TEXT,
	total_amount       DOUBLE PRECISION,
	vat_amount         DOUBLE PRECISION,
	net_amount         DOUBLE PRECISION,
	currency           TEXT NOT NULL DEFAULT 'TRY',
	extracted_fields   JSONB,
	validation_data    JSONB,
	erp_id             TEXT,
	erp_response       JSONB,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	processed_at       TIMESTAMPTZ,
	validated_at       TIMESTAMPTZ,
	sent_to_erp_at     TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_invoices_status ON invoices (status);
CREATE INDEX IF NOT EXISTS idx_invoices_created_at ON invoices (created_at DESC);

CREATE TABLE IF NOT EXISTS invoice_line_items (
	id          BIGSERIAL PRIMARY KEY,
	invoice_id  UUID NOT NULL REFERENCES invoices (id) ON DELETE CASCADE,
	description TEXT NOT NULL DEFAULT '',
	quantity    DOUBLE PRECISION NOT NULL DEFAULT 0,
	unit_price  DOUBLE PRECISION NOT NULL DEFAULT 0,
	unit        TEXT NOT NULL DEFAULT 'adet',
	vat_rate    DOUBLE PRECISION NOT NULL DEFAULT 0,
	line_total  DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_line_items_invoice ON invoice_line_items (invoice_id);

CREATE TABLE IF NOT EXISTS validation_records (
	id                BIGSERIAL PRIMARY KEY,
	invoice_id        UUID NOT NULL REFERENCES invoices (id) ON DELETE CASCADE,
	user_id           TEXT NOT NULL DEFAULT '',
	field_name        TEXT NOT NULL,
	original_value    TEXT NOT NULL DEFAULT '',
	corrected_value   TEXT NOT NULL DEFAULT '',
	confidence_before DOUBLE PRECISION NOT NULL DEFAULT 0,
	confidence_after  DOUBLE PRECISION NOT NULL DEFAULT 1.0,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_validation_invoice ON validation_records (invoice_id);

CREATE TABLE IF NOT EXISTS erp_integration_logs (
	id            BIGSERIAL PRIMARY KEY,
	invoice_id    UUID NOT NULL REFERENCES invoices (id) ON DELETE CASCADE,
	action        TEXT NOT NULL,
	request_data  JSONB,
	response_data JSONB,
	success       BOOLEAN NOT NULL DEFAULT FALSE,
	error_message TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_erp_logs_invoice ON erp_integration_logs (invoice_id);
`

// EnsureSchema creates the tables and indexes if they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
