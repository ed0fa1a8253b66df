package review

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joseph-ayodele/payment-review/internal/async"
	"github.com/joseph-ayodele/payment-review/internal/common"
	"github.com/joseph-ayodele/payment-review/internal/entity"
	"github.com/joseph-ayodele/payment-review/internal/extract"
)

// Submission describes one finished run of the submit pipeline.
type Submission struct {
	DocumentID string
	Details    entity.PaymentDetails
	Bank       *entity.SelectedBank
	Outcome    PaymentOutcome
	FinishedAt time.Time
}

// Controller holds the user-editable payment fields, validates them and
// drives validate, feedback and payment request creation. Outcomes are
// reported through the orchestrator's outcome state.
type Controller struct {
	orch   *Orchestrator
	logger *slog.Logger

	mu      sync.Mutex
	details entity.PaymentDetails

	validation  *Observable[[]ValidationMessage]
	submissions *Observable[Submission]
	submitting  atomic.Bool
	unsubscribe func()
}

// NewController binds a controller to orch. Every successful payment-details
// publication replaces the field snapshot, including edits in progress.
func NewController(orch *Orchestrator, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		orch:        orch,
		logger:      logger,
		validation:  NewObservable[[]ValidationMessage](),
		submissions: NewObservable[Submission](),
	}
	c.unsubscribe = orch.details.Subscribe(c.onDetails)
	if st, ok := orch.details.Current(); ok {
		c.onDetails(st)
	}
	return c
}

func (c *Controller) onDetails(st ResultState[entity.PaymentDetails]) {
	d, ok := st.Value()
	if !ok {
		return
	}
	c.mu.Lock()
	c.details = d.Clone()
	c.mu.Unlock()
	c.logger.Debug("review.controller.details_replaced")
}

// SetRecipient, SetIBAN, SetAmount and SetPurpose replace one field without validating.
func (c *Controller) SetRecipient(v string) { c.update(func(d *entity.PaymentDetails) { d.Recipient = v }) }
func (c *Controller) SetIBAN(v string)      { c.update(func(d *entity.PaymentDetails) { d.IBAN = v }) }
func (c *Controller) SetAmount(v string)    { c.update(func(d *entity.PaymentDetails) { d.Amount = v }) }
func (c *Controller) SetPurpose(v string)   { c.update(func(d *entity.PaymentDetails) { d.Purpose = v }) }

func (c *Controller) update(fn func(*entity.PaymentDetails)) {
	c.mu.Lock()
	fn(&c.details)
	c.mu.Unlock()
}

// Details returns a snapshot of the current fields.
func (c *Controller) Details() entity.PaymentDetails {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.details.Clone()
}

// ValidationState publishes the messages of every Validate call.
func (c *Controller) ValidationState() Watchable[[]ValidationMessage] { return c.validation }

// Submissions publishes every finished submit pipeline run.
func (c *Controller) Submissions() Watchable[Submission] { return c.submissions }

// Validate checks the current fields, publishes the messages and reports
// whether there were none.
func (c *Controller) Validate() bool {
	msgs := ValidateDetails(c.Details())
	c.validation.Publish(msgs)
	return len(msgs) == 0
}

// SubmitPayment validates the fields and, when they are valid and no other
// submission is running, starts the submit pipeline. It reports whether the
// pipeline was started. bank may be nil.
func (c *Controller) SubmitPayment(ctx context.Context, bank *entity.SelectedBank) bool {
	if !c.Validate() {
		c.logger.Info("review.submit.invalid")
		return false
	}
	if !c.submitting.CompareAndSwap(false, true) {
		c.logger.Warn("review.submit.in_flight")
		return false
	}

	snapshot := c.Details()
	var selected *entity.SelectedBank
	if bank != nil {
		b := *bank
		selected = &b
	}
	documentID := c.orch.currentDocumentID()
	ctx = common.WithDocumentID(ctx, documentID)

	c.orch.SetPaymentOutcome(OutcomeLoading())
	err := c.orch.queue.Enqueue(ctx, async.Job{Name: "review.submit_payment", Run: func(ctx context.Context) error {
		released := false
		defer func() {
			if !released {
				c.submitting.Store(false)
			}
		}()
		outcome := c.submit(ctx, snapshot, selected)
		// Outcome subscribers may resubmit straight away.
		released = true
		c.submitting.Store(false)
		c.orch.SetPaymentOutcome(outcome)
		c.submissions.Publish(Submission{
			DocumentID: documentID,
			Details:    snapshot,
			Bank:       selected,
			Outcome:    outcome,
			FinishedAt: time.Now(),
		})
		return nil
	}})
	if err != nil {
		c.submitting.Store(false)
		c.logger.Error("review.submit.enqueue_failed", "error", err)
		c.orch.SetPaymentOutcome(OutcomeError(err))
	}
	return true
}

func (c *Controller) submit(ctx context.Context, snapshot entity.PaymentDetails, bank *entity.SelectedBank) PaymentOutcome {
	c.sendFeedback(ctx, snapshot)

	if bank == nil {
		c.logger.Info("review.submit.no_bank")
		return OutcomeError(common.ErrNoBankSelected)
	}

	resolved := *bank
	if resolved.ProviderID == "" {
		providerID, err := c.resolveProvider(ctx, resolved)
		if err != nil {
			c.logger.Warn("review.submit.no_provider", "package", resolved.PackageName, "error", err)
			return OutcomeError(err)
		}
		resolved.ProviderID = providerID
	}

	amount, err := FormatAmount(snapshot.Amount, c.orch.currency)
	if err != nil {
		return OutcomeError(common.WrapError(err, "format amount"))
	}

	start := time.Now()
	requestID, err := c.orch.svc.CreatePaymentRequest(ctx, extract.PaymentRequestInput{
		ProviderID: resolved.ProviderID,
		Recipient:  strings.TrimSpace(snapshot.Recipient),
		IBAN:       common.NormalizeIBAN(snapshot.IBAN),
		Amount:     amount,
		Purpose:    strings.TrimSpace(snapshot.Purpose),
	})
	if err != nil {
		c.logger.Warn("review.payment_request.failed", "provider_id", resolved.ProviderID, "error", err,
			"retryable", common.IsRetryable(err), "elapsed_ms", time.Since(start).Milliseconds())
		return OutcomeError(err)
	}
	c.logger.Info("review.payment_request.ok", "provider_id", resolved.ProviderID, "request_id", requestID,
		"elapsed_ms", time.Since(start).Milliseconds())
	return OutcomeSuccess(requestID, resolved)
}

// sendFeedback reports corrected fields for the current document. Failures are
// logged and dropped.
func (c *Controller) sendFeedback(ctx context.Context, snapshot entity.PaymentDetails) {
	st, ok := c.orch.document.Current()
	if !ok {
		return
	}
	doc, ok := st.Value()
	if !ok {
		return
	}
	bundle, ok := FeedbackBundle(snapshot, c.orch.currency)
	if !ok {
		return
	}
	if err := c.orch.svc.SendFeedback(ctx, doc, bundle); err != nil {
		c.logger.Warn("review.feedback.failed", "document_id", doc.ID, "error", err)
		return
	}
	c.logger.Info("review.feedback.sent", "document_id", doc.ID)
}

func (c *Controller) resolveProvider(ctx context.Context, bank entity.SelectedBank) (string, error) {
	providers, err := c.orch.fetchProviders(ctx, true)
	if err != nil {
		return "", common.NewAppError(common.ErrNoProviderForBank.Code, common.ErrNoProviderForBank.Message, err)
	}
	for _, p := range providers {
		if bank.PackageName != "" && strings.EqualFold(p.PackageName, bank.PackageName) {
			return p.ID, nil
		}
	}
	return "", common.ErrNoProviderForBank
}

// AcknowledgeBankOpened resets the outcome to NoAction.
func (c *Controller) AcknowledgeBankOpened() {
	c.orch.SetPaymentOutcome(NoAction())
}

// RetryDocumentReview replays the last review request. A successful extraction
// replaces the fields.
func (c *Controller) RetryDocumentReview(ctx context.Context) {
	c.orch.RetryDocumentReview(ctx)
}

// Close detaches the controller from the orchestrator's details state.
func (c *Controller) Close() {
	c.unsubscribe()
}
