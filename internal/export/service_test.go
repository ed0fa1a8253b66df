package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/payment-review/constants"
	"github.com/joseph-ayodele/payment-review/internal/entity"
	"github.com/joseph-ayodele/payment-review/internal/repository"
)

type stubOutcomes struct {
	records []*entity.OutcomeRecord
	err     error
	filter  repository.OutcomeFilter
}

func (s *stubOutcomes) EnsureSchema(context.Context) error { return nil }
func (s *stubOutcomes) Record(context.Context, *entity.OutcomeRecord) error { return nil }
func (s *stubOutcomes) List(_ context.Context, f repository.OutcomeFilter) ([]*entity.OutcomeRecord, error) {
	s.filter = f
	return s.records, s.err
}

func TestExportOutcomesXLSX(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	stub := &stubOutcomes{records: []*entity.OutcomeRecord{
		{DocumentID: "doc-1", Status: constants.OutcomeSuccess, RequestID: "pr-1", BankName: "Bank One",
			Recipient: "John Doe", IBAN: "DE89370400440532013000", Amount: "12.50", Purpose: "invoice #123", CreatedAt: at},
		{DocumentID: "doc-2", Status: constants.OutcomeError, ErrorCode: "NO_BANK_SELECTED", ErrorMessage: "no bank selected",
			Purpose: strings.Repeat("x", 200), CreatedAt: at.Add(time.Hour)},
	}}
	svc := NewService(stub, slog.New(slog.NewTextHandler(io.Discard, nil)))

	out, err := svc.ExportOutcomesXLSX(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("ExportOutcomesXLSX error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("OpenReader error: %v", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("GetRows error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[0][0] != "Created At" || rows[0][2] != "Status" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][1] != "doc-1" || rows[1][2] != "SUCCESS" || rows[1][3] != "pr-1" || rows[1][6] != "DE89370400440532013000" {
		t.Errorf("row 1 = %v", rows[1])
	}
	if rows[2][9] != "NO_BANK_SELECTED: no bank selected" {
		t.Errorf("row 2 error = %q", rows[2][9])
	}
	if n := len([]rune(rows[2][8])); n != 140 {
		t.Errorf("purpose length = %d, want truncated to 140", n)
	}
	if stub.filter.From != nil || stub.filter.To != nil {
		t.Errorf("filter = %+v, want unbounded", stub.filter)
	}
}

func TestExportOutcomesXLSX_DateWindow(t *testing.T) {
	stub := &stubOutcomes{}
	svc := NewService(stub, nil)

	from := time.Date(2024, 5, 1, 15, 30, 0, 0, time.UTC)
	to := time.Date(2024, 5, 3, 8, 0, 0, 0, time.UTC)
	if _, err := svc.ExportOutcomesXLSX(context.Background(), &from, &to); err != nil {
		t.Fatalf("ExportOutcomesXLSX error: %v", err)
	}
	if got := *stub.filter.From; !got.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("from = %v", got)
	}
	if got := *stub.filter.To; got.Day() != 3 || got.Hour() != 23 {
		t.Errorf("to = %v, want end of day", got)
	}

	if _, err := svc.ExportOutcomesXLSX(context.Background(), &from, nil); err != nil {
		t.Fatalf("ExportOutcomesXLSX error: %v", err)
	}
	if stub.filter.To == nil {
		t.Error("from-only export should bound at today")
	}
}

func TestExportOutcomesXLSX_QueryError(t *testing.T) {
	svc := NewService(&stubOutcomes{err: errors.New("db down")}, nil)
	if _, err := svc.ExportOutcomesXLSX(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error")
	}
}
