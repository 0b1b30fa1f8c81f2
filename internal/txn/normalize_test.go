package txn

import (
	"math"
	"testing"

	"github.com/finwell/statement-ingest/internal/llm"
)

func TestNormalizeAmountParsing(t *testing.T) {
	tests := []struct {
		name   string
		amount any
		want   float64
		keep   bool
	}{
		{"plain number", 880.00, 880.00, true},
		{"formatted string", "$1,234.56", 1234.56, true},
		{"parenthesized negative", "(12.34)", -12.34, true},
		{"unicode minus", "−45.00", -45.00, true},
		{"currency suffix stripped", "37.05 ", 37.05, true},
		{"reference code rejected", "TQ242986", 0, false},
		{"letters mixed with digits rejected", "REF 880.00", 0, false},
		{"empty string", "", 0, false},
		{"no digits", "$,", 0, false},
		{"nan", math.NaN(), 0, false},
		{"infinite", math.Inf(1), 0, false},
		{"unsupported type", []string{"12"}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(llm.Candidate{
				Amount:     tt.amount,
				Currency:   "cad",
				OccurredOn: "2024-04-16",
				LineIndex:  3,
			})
			if ok != tt.keep {
				t.Fatalf("keep = %v, want %v", ok, tt.keep)
			}
			if !ok {
				return
			}
			if got.Amount != tt.want {
				t.Errorf("amount = %v, want %v", got.Amount, tt.want)
			}
			if got.Currency != "CAD" {
				t.Errorf("currency = %q, want CAD", got.Currency)
			}
		})
	}
}

func TestNormalizeDropsMissingDate(t *testing.T) {
	for _, date := range []string{"", "April 16", "2024-4-6", "16-04-2024"} {
		if _, ok := Normalize(llm.Candidate{Amount: 10.0, Currency: "USD", OccurredOn: date}); ok {
			t.Errorf("record with occurredOn=%q should be dropped", date)
		}
	}
}

func TestNormalizeSignInference(t *testing.T) {
	tests := []struct {
		name      string
		amount    float64
		direction string
		merchant  string
		note      string
		want      float64
	}{
		{"refund keyword flips positive", 22.66, "", "AUTOMATIC PAYMENT -THANK YOU", "", -22.66},
		{"chargeback flips", 99.00, "", "", "chargeback issued", -99.00},
		{"already negative stays", -15.00, "", "refund", "", -15.00},
		{"plain debit untouched", 45.10, "", "GROCER", "", 45.10},
		{"investment exempt from flip", 500.00, "", "", "RRSP contribution deposit", 500.00},
		{"savings transfer exempt", 200.00, "", "", "savings transfer credit", 200.00},
		{"direction credit forces negative", 100.00, "credit", "GROCER", "", -100.00},
		{"direction debit forces positive", 100.00, "debit", "refund city", "", 100.00},
		{"direction beats keywords", 50.00, "debit", "", "cashback rebate", 50.00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(llm.Candidate{
				Amount:     tt.amount,
				Currency:   "USD",
				OccurredOn: "2024-05-03",
				Direction:  tt.direction,
				Merchant:   tt.merchant,
				Note:       tt.note,
			})
			if !ok {
				t.Fatal("record unexpectedly dropped")
			}
			if got.Amount != tt.want {
				t.Errorf("amount = %v, want %v", got.Amount, tt.want)
			}
		})
	}
}
