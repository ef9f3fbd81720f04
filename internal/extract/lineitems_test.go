package extract

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestExtractLineItems(t *testing.T) {
	e := NewEngine(Config{Logger: zerolog.Nop()})

	tests := []struct {
		name string
		text string
		want []LineItem
	}{
		{
			name: "quantity first",
			text: "2 Danismanlik Hizmeti 500,00 1000,00",
			want: []LineItem{{Description: "Danismanlik Hizmeti", Quantity: 2, UnitPrice: 500, Total: 1000, Unit: "adet"}},
		},
		{
			name: "description first",
			text: "Yazilim Lisansi 3 250,00 750,00 TL",
			want: []LineItem{{Description: "Yazilim Lisansi", Quantity: 3, UnitPrice: 250, Total: 750, Unit: "adet"}},
		},
		{
			name: "multiple rows",
			text: "1 Kurulum Hizmeti 100,00 100,00\n4 Bakim Paketi 50,00 200,00",
			want: []LineItem{
				{Description: "Kurulum Hizmeti", Quantity: 1, UnitPrice: 100, Total: 100, Unit: "adet"},
				{Description: "Bakim Paketi", Quantity: 4, UnitPrice: 50, Total: 200, Unit: "adet"},
			},
		},
		{
			name: "short lines skipped",
			text: "1 A 2 2",
			want: nil,
		},
		{
			name: "zero quantity rejected",
			text: "0 Gecersiz Kalem 100,00 100,00",
			want: nil,
		},
		{
			name: "labels are not rows",
			text: "Toplam: 1.180,00 TL\nIBAN: TR33 0006 1005 1978 6457 8413 26",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.extractLineItems(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d items %+v, want %d", len(got), got, len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("item %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
