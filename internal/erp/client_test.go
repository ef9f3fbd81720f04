package erp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ardcek/fatura-ocr-app/pkg/models"
)

func TestSend(t *testing.T) {
	var received Record
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/invoices" {
			t.Errorf("path = %s, want /api/invoices", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(Response{Success: true, ERPID: "WLX-001", Message: "created"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key", time.Second)
	total := 1180.0
	rec := Record{InvoiceNumber: "FTR-2024-0012", TotalAmount: &total, Currency: "TRY", Action: ActionCreate}

	resp, err := c.Send(context.Background(), rec)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !resp.Success || resp.ERPID != "WLX-001" {
		t.Errorf("response = %+v", resp)
	}
	if received.InvoiceNumber != "FTR-2024-0012" || received.Action != ActionCreate {
		t.Errorf("server saw %+v", received)
	}
}

func TestSendServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	if _, err := c.Send(context.Background(), Record{}); err == nil {
		t.Fatal("expected error on 500 response")
	}
}

func TestBuildRecord(t *testing.T) {
	num := "FTR-1"
	name := "ABC Teknoloji"
	tax := "1234567890"
	total := 1180.0
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	inv := &models.Invoice{
		InvoiceNumber:    &num,
		CompanyName:      &name,
		CompanyTaxNumber: &tax,
		TotalAmount:      &total,
		InvoiceDate:      &date,
	}

	rec := BuildRecord(inv, "")
	if rec.Action != ActionCreate {
		t.Errorf("action = %q, want CREATE default", rec.Action)
	}
	if rec.Currency != "TRY" {
		t.Errorf("currency = %q, want TRY default", rec.Currency)
	}
	if rec.InvoiceNumber != num || rec.CompanyName != name || rec.CompanyTaxNumber != tax {
		t.Errorf("record = %+v", rec)
	}
	if rec.Date != "2024-03-15T00:00:00Z" {
		t.Errorf("date = %q", rec.Date)
	}
	if rec.TotalAmount == nil || *rec.TotalAmount != 1180 {
		t.Errorf("total = %v", rec.TotalAmount)
	}
}
