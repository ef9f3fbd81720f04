// Package export produces XLSX workbooks from stored invoices.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/ardcek/fatura-ocr-app/internal/store"
	"github.com/ardcek/fatura-ocr-app/pkg/models"
)

const sheetName = "Invoices"

var headers = []string{
	"ID",
	"Filename",
	"Status",
	"Invoice Number",
	"Invoice Date",
	"Company",
	"Tax Number",
	"Total Amount",
	"VAT Amount",
	"Net Amount",
	"Currency",
	"Confidence",
	"Created At",
}

// Service turns invoice rows into XLSX bytes.
type Service struct {
	invoices *store.InvoiceRepo
	log      zerolog.Logger
}

func NewService(invoices *store.InvoiceRepo, log zerolog.Logger) *Service {
	return &Service{invoices: invoices, log: log}
}

// ExportXLSX returns a workbook of invoices, optionally filtered by status.
func (s *Service) ExportXLSX(ctx context.Context, status string) ([]byte, error) {
	start := time.Now()

	invs, err := s.invoices.ListAll(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}

	data, err := WorkbookFromInvoices(invs)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int("rows", len(invs)).
		Str("status", status).
		Dur("elapsed", time.Since(start)).
		Msg("xlsx export complete")
	return data, nil
}

// WorkbookFromInvoices builds the XLSX workbook for the given invoices.
func WorkbookFromInvoices(invs []*models.Invoice) ([]byte, error) {
	f := excelize.NewFile()
	if index, _ := f.GetSheetIndex(sheetName); index == -1 {
		if _, err := f.NewSheet(sheetName); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(activeIndex)
	if defaultIndex, _ := f.GetSheetIndex("Sheet1"); defaultIndex != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}

	for rowIdx, inv := range invs {
		row := rowIdx + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}

		write(1, inv.ID)
		write(2, inv.Filename)
		write(3, inv.Status)
		write(4, strOrEmpty(inv.InvoiceNumber))
		if inv.InvoiceDate != nil {
			write(5, inv.InvoiceDate.Format("2006-01-02"))
		} else {
			write(5, "")
		}
		write(6, strOrEmpty(inv.CompanyName))
		write(7, strOrEmpty(inv.CompanyTaxNumber))
		writeAmount(write, 8, inv.TotalAmount)
		writeAmount(write, 9, inv.VATAmount)
		writeAmount(write, 10, inv.NetAmount)
		write(11, inv.Currency)
		write(12, inv.ConfidenceScore)
		write(13, inv.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	_ = f.SetColWidth(sheetName, "A", "A", 38)
	_ = f.SetColWidth(sheetName, "B", "B", 28)
	_ = f.SetColWidth(sheetName, "D", "G", 22)
	_ = f.SetColWidth(sheetName, "H", "J", 14)
	_ = f.SetColWidth(sheetName, "M", "M", 20)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func strOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func writeAmount(write func(int, any), col int, p *float64) {
	if p == nil {
		write(col, "")
		return
	}
	write(col, *p)
}
