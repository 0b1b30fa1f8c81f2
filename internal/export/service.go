package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/finwell/statement-ingest/internal/txn"
)

// Service produces XLSX bytes from a parsed transaction list.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// TransactionsXLSX returns an XLSX workbook (as bytes) listing the
// transactions in pipeline order. Amounts keep the pipeline sign convention:
// debits positive, credits negative.
func (s *Service) TransactionsXLSX(transactions []txn.Transaction) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Transactions"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Date",
		"Amount",
		"Currency",
		"Merchant",
		"Payment Method",
		"Category",
		"Notes",
		"Line",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, t := range transactions {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, t.OccurredOn)
		write(2, t.Amount)
		write(3, t.Currency)
		write(4, t.Merchant)
		write(5, t.PaymentMethod)
		write(6, t.Category)
		write(7, truncate(t.Note, 140))
		if t.LineIndex > 0 {
			write(8, t.LineIndex)
		}

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 12) // date
	_ = f.SetColWidth(sheet, "B", "C", 12) // amount, currency
	_ = f.SetColWidth(sheet, "D", "D", 28) // merchant
	_ = f.SetColWidth(sheet, "E", "F", 18) // method, category
	_ = f.SetColWidth(sheet, "G", "G", 48) // notes

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(transactions),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
