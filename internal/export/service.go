package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/payment-review/internal/repository"
)

const sheet = "Outcomes"

// Service produces XLSX bytes for journal exports.
type Service struct {
	outcomes repository.OutcomeRepository
	logger   *slog.Logger
}

func NewService(outcomes repository.OutcomeRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{outcomes: outcomes, logger: logger}
}

// ExportOutcomesXLSX returns an XLSX workbook (as bytes) of journaled outcomes.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> every outcome.
func (s *Service) ExportOutcomesXLSX(ctx context.Context, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	// Normalize dates (date-only, UTC); the upper bound covers the whole day.
	var fromDate, toDate *time.Time
	if from != nil {
		f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		fromDate = &f
	}
	if to != nil {
		t := endOfDay(*to)
		toDate = &t
	}
	if fromDate != nil && toDate == nil {
		t := endOfDay(time.Now().UTC())
		toDate = &t
	}

	recs, err := s.outcomes.List(ctx, repository.OutcomeFilter{From: fromDate, To: toDate})
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	_ = f.DeleteSheet("Sheet1")

	headers := []string{
		"Created At",
		"Document",
		"Status",
		"Request ID",
		"Bank",
		"Recipient",
		"IBAN",
		"Amount",
		"Purpose",
		"Error",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range recs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.CreatedAt.UTC().Format(time.RFC3339))
		write(2, r.DocumentID)
		write(3, string(r.Status))
		write(4, r.RequestID)
		write(5, r.BankName)
		write(6, r.Recipient)
		write(7, r.IBAN)
		write(8, r.Amount)
		write(9, truncate(r.Purpose, 140))
		if r.ErrorCode != "" {
			write(10, r.ErrorCode+": "+truncate(r.ErrorMessage, 200))
		} else {
			write(10, "")
		}
		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 22) // timestamp
	_ = f.SetColWidth(sheet, "B", "D", 18) // ids, status
	_ = f.SetColWidth(sheet, "E", "F", 28) // bank, recipient
	_ = f.SetColWidth(sheet, "G", "G", 34) // iban
	_ = f.SetColWidth(sheet, "H", "H", 14) // amount
	_ = f.SetColWidth(sheet, "I", "J", 48) // purpose, error

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Millisecond), time.UTC)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
