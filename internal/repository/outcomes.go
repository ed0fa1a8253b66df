package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/payment-review/constants"
	"github.com/joseph-ayodele/payment-review/internal/common"
	"github.com/joseph-ayodele/payment-review/internal/entity"
)

const outcomesTable = "review_outcomes"

var outcomeColumns = []string{
	"id", "document_id", "status", "request_id", "bank_name", "provider_id",
	"recipient", "iban", "amount", "purpose", "error_code", "error_message", "created_at",
}

// OutcomeFilter narrows List. Zero values mean no bound.
type OutcomeFilter struct {
	From       *time.Time
	To         *time.Time
	DocumentID string
	Status     constants.OutcomeStatus
	Limit      int
}

type OutcomeRepository interface {
	EnsureSchema(ctx context.Context) error
	Record(ctx context.Context, rec *entity.OutcomeRecord) error
	List(ctx context.Context, filter OutcomeFilter) ([]*entity.OutcomeRecord, error)
}

type outcomeRepository struct {
	drv    *entsql.Driver
	logger *slog.Logger
}

func NewOutcomeRepository(db *DB, logger *slog.Logger) OutcomeRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &outcomeRepository{drv: db.Driver, logger: logger}
}

func (r *outcomeRepository) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.drv.Dialect())
}

// EnsureSchema creates the outcomes table when missing.
func (r *outcomeRepository) EnsureSchema(ctx context.Context) error {
	text := func(name string) *entsql.ColumnBuilder {
		return entsql.Column(name).Type("text").Attr("NOT NULL DEFAULT ''")
	}
	query, args := r.builder().CreateTable(outcomesTable).IfNotExists().
		Columns(
			entsql.Column("id").Type("varchar(36)").Attr("NOT NULL"),
			text("document_id"),
			entsql.Column("status").Type("varchar(16)").Attr("NOT NULL"),
			text("request_id"),
			text("bank_name"),
			text("provider_id"),
			text("recipient"),
			text("iban"),
			text("amount"),
			text("purpose"),
			text("error_code"),
			text("error_message"),
			entsql.Column("created_at").Type("bigint").Attr("NOT NULL"),
		).
		PrimaryKey("id").
		Query()

	var res sql.Result
	if err := r.drv.Exec(ctx, query, args, &res); err != nil {
		r.logger.Error("failed to create outcomes table", "error", err)
		return fmt.Errorf("%w: create %s: %v", common.ErrDatabase, outcomesTable, err)
	}
	r.logger.Debug("outcomes table ready", "dialect", r.drv.Dialect())
	return nil
}

// Record inserts rec, assigning an ID and timestamp when missing.
func (r *outcomeRepository) Record(ctx context.Context, rec *entity.OutcomeRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if !rec.Status.IsTerminal() {
		return fmt.Errorf("%w: status %q is not terminal", common.ErrInvalidInput, rec.Status)
	}

	query, args := r.builder().Insert(outcomesTable).
		Columns(outcomeColumns...).
		Values(
			rec.ID.String(), rec.DocumentID, string(rec.Status), rec.RequestID, rec.BankName, rec.ProviderID,
			rec.Recipient, rec.IBAN, rec.Amount, rec.Purpose, rec.ErrorCode, rec.ErrorMessage,
			rec.CreatedAt.UnixMilli(),
		).
		Query()

	var res sql.Result
	if err := r.drv.Exec(ctx, query, args, &res); err != nil {
		r.logger.Error("failed to record outcome", "document_id", rec.DocumentID, "status", rec.Status, "error", err)
		return fmt.Errorf("%w: insert outcome: %v", common.ErrDatabase, err)
	}
	r.logger.Info("outcome recorded", "id", rec.ID, "document_id", rec.DocumentID, "status", rec.Status)
	return nil
}

// List returns outcomes newest first.
func (r *outcomeRepository) List(ctx context.Context, filter OutcomeFilter) ([]*entity.OutcomeRecord, error) {
	sel := r.builder().Select(outcomeColumns...).From(entsql.Table(outcomesTable))

	var preds []*entsql.Predicate
	if filter.From != nil {
		preds = append(preds, entsql.GTE("created_at", filter.From.UnixMilli()))
	}
	if filter.To != nil {
		preds = append(preds, entsql.LTE("created_at", filter.To.UnixMilli()))
	}
	if filter.DocumentID != "" {
		preds = append(preds, entsql.EQ("document_id", filter.DocumentID))
	}
	if filter.Status != "" {
		preds = append(preds, entsql.EQ("status", string(filter.Status)))
	}
	if len(preds) > 0 {
		sel = sel.Where(entsql.And(preds...))
	}
	sel = sel.OrderBy(entsql.Desc("created_at"), entsql.Asc("id"))
	if filter.Limit > 0 {
		sel = sel.Limit(filter.Limit)
	}
	query, args := sel.Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, query, args, rows); err != nil {
		r.logger.Error("failed to list outcomes", "error", err)
		return nil, fmt.Errorf("%w: list outcomes: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	out := make([]*entity.OutcomeRecord, 0)
	for rows.Next() {
		var (
			id, status string
			createdAt  int64
			rec        entity.OutcomeRecord
		)
		if err := rows.Scan(&id, &rec.DocumentID, &status, &rec.RequestID, &rec.BankName, &rec.ProviderID,
			&rec.Recipient, &rec.IBAN, &rec.Amount, &rec.Purpose, &rec.ErrorCode, &rec.ErrorMessage, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: scan outcome: %v", common.ErrDatabase, err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("%w: outcome id %q: %v", common.ErrDatabase, id, err)
		}
		rec.ID = parsed
		rec.Status = constants.OutcomeStatus(status)
		rec.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate outcomes: %v", common.ErrDatabase, err)
	}
	return out, nil
}
