package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/finwell/statement-ingest/internal/txn"
)

func TestTransactionsXLSX(t *testing.T) {
	transactions := []txn.Transaction{
		{
			Amount:        880.00,
			Currency:      "CAD",
			OccurredOn:    "2024-04-16",
			LineIndex:     3,
			Merchant:      "ATM withdrawal",
			PaymentMethod: "debit card",
		},
		{
			Amount:     -22.66,
			Currency:   "CAD",
			OccurredOn: "2024-04-20",
			Merchant:   "AUTOMATIC PAYMENT -THANK YOU",
			Note:       "statement credit",
		},
	}

	book, err := NewService(nil).TransactionsXLSX(transactions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(book))
	if err != nil {
		t.Fatalf("workbook does not open: %v", err)
	}
	defer f.Close()

	cell := func(ref string) string {
		v, err := f.GetCellValue("Transactions", ref)
		if err != nil {
			t.Fatalf("read %s: %v", ref, err)
		}
		return v
	}

	if cell("A1") != "Date" || cell("B1") != "Amount" {
		t.Errorf("header row = %q, %q", cell("A1"), cell("B1"))
	}
	if cell("A2") != "2024-04-16" || cell("D2") != "ATM withdrawal" {
		t.Errorf("row 2 = %q, %q", cell("A2"), cell("D2"))
	}
	if cell("B2") != "880" {
		t.Errorf("amount cell = %q", cell("B2"))
	}
	if cell("H2") != "3" {
		t.Errorf("line cell = %q", cell("H2"))
	}
	if cell("B3") != "-22.66" {
		t.Errorf("negative amount cell = %q", cell("B3"))
	}
	if cell("H3") != "" {
		t.Errorf("missing line index should leave the cell empty, got %q", cell("H3"))
	}
}

func TestTransactionsXLSXEmptyList(t *testing.T) {
	book, err := NewService(nil).TransactionsXLSX(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(book))
	if err != nil {
		t.Fatalf("workbook does not open: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Transactions")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Errorf("got %d rows, want header only", len(rows))
	}
}
