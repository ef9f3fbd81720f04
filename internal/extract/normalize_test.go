package extract

import (
	"math"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1.234,56", 1234.56, true},
		{"1234,56", 1234.56, true},
		{"1234.56", 1234.56, true},
		{"1.234.567,89", 1234567.89, true},
		{"1.234", 1234, true},
		{"1.234.56", 1234.56, true},
		{"180,00", 180, true},
		{"500", 500, true},
		{"0,5", 0.5, true},
		{"  1.180,00 ", 1180, true},
		{"", 0, false},
		{"abc", 0, false},
		{",", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseAmount(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseAmount(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ParseAmount(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"15.03.2024", "2024-03-15", true},
		{"15/03/2024", "2024-03-15", true},
		{"15-03-2024", "2024-03-15", true},
		{"2024-03-15", "2024-03-15", true},
		{"1.1.2024", "2024-01-01", true},
		{"15.03.24", "2024-03-15", true},
		{"32.01.2024", "", false},
		{"not a date", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("ParseDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateIBAN(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"TR330006100519786457841326", "TR330006100519786457841326", true},
		{"TR33 0006 1005 1978 6457 8413 26", "TR330006100519786457841326", true},
		{"tr330006100519786457841326", "TR330006100519786457841326", true},
		{"FR7630006000011234567890189", "", false},
		{"TR33", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ValidateIBAN(tt.in)
		if ok != tt.ok {
			t.Errorf("ValidateIBAN(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("ValidateIBAN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanCompanyName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ABC Teknoloji A.S.", "ABC Teknoloji"},
		{"Ornek Yazilim Ltd.", "Ornek Yazilim"},
		{"Mega Insaat Sanayi", "Mega Insaat"},
		{"Acme Inc.", "Acme"},
		{"Plain Name", "Plain Name"},
		{"  Trailing Dots...  ", "Trailing Dots"},
	}
	for _, tt := range tests {
		if got := CleanCompanyName(tt.in); got != tt.want {
			t.Errorf("CleanCompanyName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeText(t *testing.T) {
	in := "Fatura   No:  ÖDENECEK\nTarih:\t15.03.2024"
	want := "Fatura No: ODENECEK\nTarih: 15.03.2024"
	if got := NormalizeText(in); got != want {
		t.Errorf("NormalizeText = %q, want %q", got, want)
	}
	// Folding is idempotent.
	if got := NormalizeText(NormalizeText(in)); got != want {
		t.Errorf("NormalizeText not idempotent, got %q", got)
	}
}

func TestNormalizeCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"TL", "TRY"},
		{"₺", "TRY"},
		{"try", "TRY"},
		{"usd", "USD"},
		{"EUR", "EUR"},
	}
	for _, tt := range tests {
		if got := NormalizeCurrency(tt.in); got != tt.want {
			t.Errorf("NormalizeCurrency(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
