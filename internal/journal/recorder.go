package journal

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/payment-review/internal/async"
	"github.com/joseph-ayodele/payment-review/internal/common"
	"github.com/joseph-ayodele/payment-review/internal/entity"
	"github.com/joseph-ayodele/payment-review/internal/repository"
	"github.com/joseph-ayodele/payment-review/internal/review"
)

// Recorder persists every terminal payment outcome. Writes run on a worker
// pool so publishers never wait for the database.
type Recorder struct {
	repo   repository.OutcomeRepository
	queue  *async.WorkerQueue
	logger *slog.Logger
}

func NewRecorder(repo repository.OutcomeRepository, logger *slog.Logger, opts ...async.Option) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		repo:   repo,
		queue:  async.NewWorkerQueue(logger, opts...),
		logger: logger,
	}
}

// Attach records every submission published on subs until the returned func is called.
func (r *Recorder) Attach(subs review.Watchable[review.Submission]) (detach func()) {
	return subs.Subscribe(func(s review.Submission) {
		r.Enqueue(context.Background(), s)
	})
}

// Enqueue schedules s for persistence. Non-terminal outcomes are ignored.
func (r *Recorder) Enqueue(ctx context.Context, s review.Submission) {
	rec, ok := RecordFromSubmission(s)
	if !ok {
		return
	}
	err := r.queue.Enqueue(ctx, async.Job{Name: "journal.record", Run: func(ctx context.Context) error {
		if err := r.repo.Record(ctx, rec); err != nil {
			r.logger.Error("journal.record.failed", "document_id", rec.DocumentID, "status", rec.Status, "error", err)
			return err
		}
		r.logger.Debug("journal.record.ok", "id", rec.ID, "document_id", rec.DocumentID)
		return nil
	}})
	if err != nil {
		r.logger.Error("journal.enqueue.failed", "document_id", rec.DocumentID, "error", err)
	}
}

// Flush waits until queued writes have finished.
func (r *Recorder) Flush(ctx context.Context) error {
	return r.queue.Flush(ctx)
}

// Close drains queued writes.
func (r *Recorder) Close(ctx context.Context) {
	r.queue.Shutdown(ctx)
}

// RecordFromSubmission maps a finished submission to a journal row.
func RecordFromSubmission(s review.Submission) (*entity.OutcomeRecord, bool) {
	status := s.Outcome.Status()
	if !status.IsTerminal() {
		return nil, false
	}
	rec := &entity.OutcomeRecord{
		DocumentID: s.DocumentID,
		Status:     status,
		Recipient:  s.Details.Recipient,
		IBAN:       common.NormalizeIBAN(s.Details.IBAN),
		Amount:     s.Details.Amount,
		Purpose:    s.Details.Purpose,
		CreatedAt:  s.FinishedAt.UTC(),
	}
	if s.Bank != nil {
		rec.BankName = s.Bank.Name
		rec.ProviderID = s.Bank.ProviderID
	}
	if requestID, bank, ok := s.Outcome.Success(); ok {
		rec.RequestID = requestID
		rec.BankName = bank.Name
		rec.ProviderID = bank.ProviderID
	}
	if err := s.Outcome.Err(); err != nil {
		rec.ErrorCode = common.ErrorCode(err)
		rec.ErrorMessage = err.Error()
	}
	return rec, true
}
