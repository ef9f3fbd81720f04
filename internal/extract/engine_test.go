package extract

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

// stubAnnotator returns a fixed entity list, or an error when err is set.
type stubAnnotator struct {
	entities []Entity
	err      error
}

func (s *stubAnnotator) Annotate(ctx context.Context, text string) ([]Entity, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.entities, nil
}

const sampleInvoice = `ABC Teknoloji A.Ş.
Fatura No: FTR-2024-0012
Tarih: 15.03.2024
Vergi No: 1234567890
2 Danışmanlık Hizmeti 500,00 1000,00
KDV: 180,00 TL
Toplam: 1.180,00 TL
IBAN: TR33 0006 1005 1978 6457 8413 26`

func newTestEngine(annotator Annotator) *Engine {
	return NewEngine(Config{
		Annotator: annotator,
		Logger:    zerolog.Nop(),
	})
}

func TestExtractSampleInvoice(t *testing.T) {
	e := newTestEngine(nil)
	result := e.Extract(context.Background(), sampleInvoice)

	wantStrings := map[string]string{
		FieldInvoiceNumber: "FTR-2024-0012",
		FieldDate:          "2024-03-15",
		FieldTaxNumber:     "1234567890",
		FieldCompanyName:   "ABC Teknoloji",
		FieldCurrency:      "TRY",
		FieldIBAN:          "TR330006100519786457841326",
	}
	for name, want := range wantStrings {
		got, ok := result.String(name)
		if !ok {
			t.Errorf("field %s missing, have %v", name, result.Fields)
			continue
		}
		if got != want {
			t.Errorf("field %s = %q, want %q", name, got, want)
		}
	}

	wantFloats := map[string]float64{
		FieldTotalAmount: 1180.00,
		FieldVATAmount:   180.00,
	}
	for name, want := range wantFloats {
		got, ok := result.Float(name)
		if !ok {
			t.Errorf("field %s missing or not numeric", name)
			continue
		}
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("field %s = %v, want %v", name, got, want)
		}
	}

	for _, name := range []string{FieldInvoiceNumber, FieldDate, FieldTotalAmount} {
		f := result.Fields[name]
		if f.Method != MethodRegex {
			t.Errorf("field %s method = %q, want %q", name, f.Method, MethodRegex)
		}
		if f.Confidence < 0.7 {
			t.Errorf("field %s confidence = %v, want >= 0.7", name, f.Confidence)
		}
	}

	if _, ok := result.Get(FieldNetAmount); ok {
		t.Error("net_amount should be absent, there is no net label in the sample")
	}

	rule, ok := result.Get(FieldTotalAmountRule)
	if !ok {
		t.Fatal("total_amount_rule missing")
	}
	if rule.Method != MethodRule {
		t.Errorf("rule method = %q, want %q", rule.Method, MethodRule)
	}
	if rule.Confidence != 0.8 {
		t.Errorf("rule confidence = %v, want 0.8", rule.Confidence)
	}

	if len(result.LineItems) != 1 {
		t.Fatalf("line items = %d, want 1", len(result.LineItems))
	}
	item := result.LineItems[0]
	if item.Description != "Danismanlik Hizmeti" || item.Quantity != 2 || item.UnitPrice != 500 || item.Total != 1000 {
		t.Errorf("unexpected line item: %+v", item)
	}
}

func TestExtractConfidenceBounds(t *testing.T) {
	e := newTestEngine(nil)
	result := e.Extract(context.Background(), sampleInvoice)
	for name, f := range result.Fields {
		if f.Confidence <= 0 || f.Confidence > maxPatternConfidence {
			t.Errorf("field %s confidence %v outside (0, %v]", name, f.Confidence, maxPatternConfidence)
		}
	}
}

func TestExtractIdempotent(t *testing.T) {
	e := newTestEngine(nil)
	first := e.Extract(context.Background(), sampleInvoice)
	second := e.Extract(context.Background(), sampleInvoice)
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated extraction of the same text produced different results")
	}
}

func TestExtractEmptyInput(t *testing.T) {
	e := newTestEngine(nil)
	for _, in := range []string{"", "   ", "\n\t\n"} {
		result := e.Extract(context.Background(), in)
		if len(result.Fields) != 0 {
			t.Errorf("Extract(%q) fields = %v, want empty", in, result.Fields)
		}
		if len(result.LineItems) != 0 {
			t.Errorf("Extract(%q) line items = %v, want none", in, result.LineItems)
		}
	}
}

func TestExtractPatternBeatsEntity(t *testing.T) {
	// The pattern finds the total at high confidence; the 0.70 entity
	// candidate must not displace it.
	stub := &stubAnnotator{entities: []Entity{
		{Label: "MONEY", Text: "999,99 TL"},
	}}
	e := newTestEngine(stub)
	result := e.Extract(context.Background(), sampleInvoice)

	got, ok := result.Float(FieldTotalAmount)
	if !ok || got != 1180.00 {
		t.Fatalf("total_amount = %v (ok=%v), want 1180", got, ok)
	}
	if m := result.Fields[FieldTotalAmount].Method; m != MethodRegex {
		t.Errorf("total_amount method = %q, want %q", m, MethodRegex)
	}
}

func TestExtractEntityFillsGap(t *testing.T) {
	// No total/company vocabulary in the text, so the entity candidates are
	// the only source for those fields.
	text := "Odeme bilgisi asagidadir\nSirket: Ornek"
	stub := &stubAnnotator{entities: []Entity{
		{Label: "MONEY", Text: "1.250,50 TL"},
		{Label: "DATE", Text: "15.03.2024"},
		{Label: "ORG", Text: "Ornek Yazilim Ltd."},
	}}
	e := newTestEngine(stub)
	result := e.Extract(context.Background(), text)

	total, ok := result.Float(FieldTotalAmount)
	if !ok || total != 1250.50 {
		t.Fatalf("total_amount = %v (ok=%v), want 1250.5", total, ok)
	}
	if f := result.Fields[FieldTotalAmount]; f.Method != MethodNER || f.Confidence != moneyEntityConfidence {
		t.Errorf("total_amount = %+v, want method %q at %v", f, MethodNER, moneyEntityConfidence)
	}

	if date, _ := result.String(FieldDate); date != "2024-03-15" {
		t.Errorf("date = %q, want 2024-03-15", date)
	}
	if f := result.Fields[FieldDate]; f.Confidence != dateEntityConfidence {
		t.Errorf("date confidence = %v, want %v", f.Confidence, dateEntityConfidence)
	}

	if name, _ := result.String(FieldCompanyName); name != "Ornek Yazilim" {
		t.Errorf("company_name = %q, want cleaned org span", name)
	}
	if f := result.Fields[FieldCompanyName]; f.Confidence != companyEntityConfidence {
		t.Errorf("company confidence = %v, want %v", f.Confidence, companyEntityConfidence)
	}
}

func TestExtractAnnotatorFailureDegrades(t *testing.T) {
	stub := &stubAnnotator{err: errors.New("annotation service down")}
	e := newTestEngine(stub)
	result := e.Extract(context.Background(), sampleInvoice)

	if got, _ := result.String(FieldInvoiceNumber); got != "FTR-2024-0012" {
		t.Errorf("invoice_number = %q, pattern extraction should survive annotator failure", got)
	}
}

func TestApplyEntitiesIBANTokenScan(t *testing.T) {
	e := newTestEngine(&stubAnnotator{})
	fields := make(map[string]Field)
	e.applyEntities(context.Background(), "odeme icin TR330006100519786457841326 kullanin", fields)

	f, ok := fields[FieldIBAN]
	if !ok {
		t.Fatal("iban missing from token scan")
	}
	if f.Value != "TR330006100519786457841326" || f.Method != MethodNER || f.Confidence != ibanTokenConfidence {
		t.Errorf("iban = %+v", f)
	}
}

func TestExtractContextWindowFallback(t *testing.T) {
	// The only labeled date is invalid, so direct extraction rejects every
	// pattern: the bare-date pattern's longest capture is the invalid one.
	// The clue line lower down has the valid date in its window.
	const text = `Islem Tarihi: 99.99.2024
Sayin musteri
Hizmet detaylari asagidadir
Fatura Tarih Bilgisi
15.03.2024`

	e := newTestEngine(nil)
	result := e.Extract(context.Background(), text)

	f, ok := result.Get(FieldDate)
	if !ok {
		t.Fatalf("date missing, have %v", result.Fields)
	}
	if f.Value != "2024-03-15" {
		t.Errorf("date = %v, want 2024-03-15", f.Value)
	}
	if f.Method != MethodContext {
		t.Errorf("date method = %q, want %q", f.Method, MethodContext)
	}
	// Fourth pattern in the window: 0.9 - 0.3 + capped length bonus 0.1.
	if math.Abs(f.Confidence-0.7) > 1e-9 {
		t.Errorf("date confidence = %v, want 0.7", f.Confidence)
	}
	if f.SourceText != "15.03.2024" {
		t.Errorf("date source = %q", f.SourceText)
	}
}

func TestExtractGrouplessPatternSkipped(t *testing.T) {
	const text = "Fatura No: FTR-2024-0012"

	e := NewEngine(Config{
		Specs: []FieldSpec{{
			Name:     FieldInvoiceNumber,
			Kind:     KindText,
			Patterns: []string{`fatura no`},
		}},
		Logger: zerolog.Nop(),
	})
	result := e.Extract(context.Background(), text)
	if _, ok := result.Get(FieldInvoiceNumber); ok {
		t.Errorf("pattern without a capturing group must be skipped, got %v", result.Fields)
	}

	// A later pattern still works and keeps its priority index.
	e = NewEngine(Config{
		Specs: []FieldSpec{{
			Name: FieldInvoiceNumber,
			Kind: KindText,
			Patterns: []string{
				`fatura no`,
				`fatura no[:.\s]*([A-Z0-9\-]+)`,
			},
		}},
		Logger: zerolog.Nop(),
	})
	result = e.Extract(context.Background(), text)

	f, ok := result.Get(FieldInvoiceNumber)
	if !ok {
		t.Fatal("invoice_number missing")
	}
	if f.Value != "FTR-2024-0012" {
		t.Errorf("invoice_number = %v", f.Value)
	}
	if math.Abs(f.Confidence-0.9) > 1e-9 {
		t.Errorf("confidence = %v, want 0.9 (second-pattern base plus capped bonus)", f.Confidence)
	}
}

func TestNewEngineLeavesCallerSpecs(t *testing.T) {
	specs := []FieldSpec{{
		Name:     FieldInvoiceNumber,
		Kind:     KindText,
		Patterns: []string{`fatura no[:.\s]*([A-Z0-9\-]+)`},
	}}
	cfg := Config{Specs: specs, Logger: zerolog.Nop()}

	e1 := NewEngine(cfg)
	if specs[0].compiled != nil {
		t.Fatal("NewEngine compiled into the caller's slice")
	}
	e2 := NewEngine(cfg)

	for _, e := range []*Engine{e1, e2} {
		got, _ := e.Extract(context.Background(), "Fatura No: FTR-2024-0012").String(FieldInvoiceNumber)
		if got != "FTR-2024-0012" {
			t.Errorf("invoice_number = %q", got)
		}
	}
}
