package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ardcek/fatura-ocr-app/pkg/models"
)

func TestWorkbookFromInvoices(t *testing.T) {
	number := "FTR-2024-0012"
	company := "ABC Teknoloji"
	total := 1180.0
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	invs := []*models.Invoice{
		{
			ID:              "11111111-1111-1111-1111-111111111111",
			Filename:        "fatura.pdf",
			Status:          models.StatusValidated,
			InvoiceNumber:   &number,
			InvoiceDate:     &date,
			CompanyName:     &company,
			TotalAmount:     &total,
			Currency:        "TRY",
			ConfidenceScore: 0.87,
			CreatedAt:       time.Date(2024, 3, 16, 10, 30, 0, 0, time.UTC),
		},
		{
			ID:        "22222222-2222-2222-2222-222222222222",
			Filename:  "scan.jpg",
			Status:    models.StatusUploaded,
			Currency:  "TRY",
			CreatedAt: time.Date(2024, 3, 17, 9, 0, 0, 0, time.UTC),
		},
	}

	data, err := WorkbookFromInvoices(invs)
	if err != nil {
		t.Fatalf("WorkbookFromInvoices failed: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reopening workbook failed: %v", err)
	}
	defer f.Close()

	cell := func(ref string) string {
		v, err := f.GetCellValue(sheetName, ref)
		if err != nil {
			t.Fatalf("GetCellValue(%s) failed: %v", ref, err)
		}
		return v
	}

	if got := cell("A1"); got != "ID" {
		t.Errorf("header A1 = %q, want ID", got)
	}
	if got := cell("D1"); got != "Invoice Number" {
		t.Errorf("header D1 = %q, want Invoice Number", got)
	}

	if got := cell("D2"); got != number {
		t.Errorf("invoice number = %q, want %q", got, number)
	}
	if got := cell("E2"); got != "2024-03-15" {
		t.Errorf("invoice date = %q, want 2024-03-15", got)
	}
	if got := cell("F2"); got != company {
		t.Errorf("company = %q, want %q", got, company)
	}
	if got := cell("H2"); got != "1180" {
		t.Errorf("total = %q, want 1180", got)
	}

	// The unprocessed invoice leaves the extracted fields blank.
	if got := cell("D3"); got != "" {
		t.Errorf("empty invoice number = %q, want empty", got)
	}
	if got := cell("H3"); got != "" {
		t.Errorf("empty total = %q, want empty", got)
	}
}

func TestWorkbookFromInvoicesEmpty(t *testing.T) {
	data, err := WorkbookFromInvoices(nil)
	if err != nil {
		t.Fatalf("WorkbookFromInvoices failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty workbook bytes")
	}
}
