package review

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/payment-review/constants"
	"github.com/joseph-ayodele/payment-review/internal/async"
	"github.com/joseph-ayodele/payment-review/internal/common"
	"github.com/joseph-ayodele/payment-review/internal/entity"
	"github.com/joseph-ayodele/payment-review/internal/extract"
	"github.com/joseph-ayodele/payment-review/internal/requirements"
)

// Options tune an Orchestrator.
type Options struct {
	Currency   string        // ISO 4217 code used when an amount carries none
	JobTimeout time.Duration // per remote call sequence
	QueueSize  int
}

// OptionsFromConfig maps the review section of the application config.
func OptionsFromConfig(rc common.ReviewConfig) Options {
	return Options{
		Currency:   rc.Currency,
		JobTimeout: rc.JobTimeout,
		QueueSize:  rc.QueueSize,
	}
}

// Orchestrator owns the document, payment-details, payment-outcome and
// provider states, and drives document resolution and extraction retrieval.
// Public methods publish Loading synchronously and run remote calls on a
// single worker, so they never block on the network.
type Orchestrator struct {
	svc      extract.Service
	checker  requirements.Checker
	logger   *slog.Logger
	queue    *async.WorkerQueue
	currency string

	mu       sync.Mutex
	captured CapturedArguments

	document  *Observable[ResultState[entity.Document]]
	details   *Observable[ResultState[entity.PaymentDetails]]
	outcome   *Observable[PaymentOutcome]
	providers *Observable[ResultState[[]entity.PaymentProvider]]
}

// NewOrchestrator returns an orchestrator backed by svc. A nil checker uses
// requirements.NewRuleChecker defaults; a nil logger uses slog.Default.
func NewOrchestrator(svc extract.Service, checker requirements.Checker, logger *slog.Logger, opts Options) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if checker == nil {
		checker = requirements.NewRuleChecker()
	}
	return &Orchestrator{
		svc:      svc,
		checker:  checker,
		logger:   logger,
		currency: constants.NormalizeCurrency(opts.Currency),
		queue: async.NewWorkerQueue(logger,
			async.WithWorkers(1),
			async.WithQueueSize(opts.QueueSize),
			async.WithJobTimeout(opts.JobTimeout),
		),
		document:  NewObservable[ResultState[entity.Document]](),
		details:   NewObservable[ResultState[entity.PaymentDetails]](),
		outcome:   NewObservableWith(NoAction()),
		providers: NewObservable[ResultState[[]entity.PaymentProvider]](),
	}
}

// DocumentState reports the document under review.
func (o *Orchestrator) DocumentState() Watchable[ResultState[entity.Document]] { return o.document }

// PaymentDetailsState reports the payment fields mapped from extractions.
func (o *Orchestrator) PaymentDetailsState() Watchable[ResultState[entity.PaymentDetails]] {
	return o.details
}

// PaymentOutcomeState reports the latest payment outcome. It starts as NoAction.
func (o *Orchestrator) PaymentOutcomeState() Watchable[PaymentOutcome] { return o.outcome }

// PaymentProvidersState reports the provider list.
func (o *Orchestrator) PaymentProvidersState() Watchable[ResultState[[]entity.PaymentProvider]] {
	return o.providers
}

// LastArguments returns the arguments the next retry would replay, or nil.
func (o *Orchestrator) LastArguments() CapturedArguments {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.captured
}

// SetDocumentForReview reviews an already-resolved document.
func (o *Orchestrator) SetDocumentForReview(ctx context.Context, doc entity.Document) {
	o.capture(ByDocument{Document: doc})
	ctx = common.WithDocumentID(ctx, doc.ID)
	o.logger.Info("review.document.set", "document_id", doc.ID)

	o.document.Publish(Success(doc))
	o.details.Publish(Loading[entity.PaymentDetails]())
	o.enqueue(ctx, "review.extractions", func(ctx context.Context) error {
		o.fetchExtractions(ctx, doc)
		return nil
	}, func(err error) {
		o.details.Publish(Failure[entity.PaymentDetails](err))
	})
}

// SetDocumentIDForReview resolves the document by id. Non-nil details are
// published as-is and extraction is skipped.
func (o *Orchestrator) SetDocumentIDForReview(ctx context.Context, id string, details *entity.PaymentDetails) {
	var prefilled *entity.PaymentDetails
	if details != nil {
		d := details.Clone()
		prefilled = &d
	}
	o.capture(ByDocumentID{ID: id, Details: prefilled})
	ctx = common.WithDocumentID(ctx, id)
	o.logger.Info("review.document_id.set", "document_id", id, "prefilled", prefilled != nil)

	o.document.Publish(Loading[entity.Document]())
	if prefilled != nil {
		o.details.Publish(Success(prefilled.Clone()))
	} else {
		o.details.Publish(Loading[entity.PaymentDetails]())
	}

	o.enqueue(ctx, "review.resolve_document", func(ctx context.Context) error {
		start := time.Now()
		doc, err := o.svc.ResolveDocument(ctx, id)
		if err != nil {
			o.logger.Warn("review.document.failed", "document_id", id, "error", err,
				"elapsed_ms", time.Since(start).Milliseconds())
			o.document.Publish(Failure[entity.Document](err))
			if prefilled == nil {
				o.details.Publish(Failure[entity.PaymentDetails](documentUnavailable(err)))
			}
			return nil
		}
		o.logger.Info("review.document.ok", "document_id", id, "elapsed_ms", time.Since(start).Milliseconds())
		o.document.Publish(Success(doc))
		if prefilled == nil {
			o.fetchExtractions(ctx, doc)
		}
		return nil
	}, func(err error) {
		o.document.Publish(Failure[entity.Document](err))
		if prefilled == nil {
			o.details.Publish(Failure[entity.PaymentDetails](err))
		}
	})
}

// CheckRequirements returns the unmet requirements for env. It reads the
// loaded provider list when env carries none.
func (o *Orchestrator) CheckRequirements(env requirements.Environment) []requirements.Requirement {
	if env.Providers == nil {
		if st, ok := o.providers.Current(); ok {
			if list, ok := st.Value(); ok {
				env.Providers = list
			}
		}
	}
	return o.checker.Check(env)
}

// RetryDocumentReview replays the last set call. It does nothing when no call
// has been captured yet.
func (o *Orchestrator) RetryDocumentReview(ctx context.Context) {
	switch args := o.LastArguments().(type) {
	case nil:
		o.logger.Debug("review.retry.nothing_captured")
	case ByDocument:
		o.logger.Info("review.retry", "document_id", args.Document.ID, "by", "document")
		o.SetDocumentForReview(ctx, args.Document)
	case ByDocumentID:
		o.logger.Info("review.retry", "document_id", args.ID, "by", "document_id")
		o.SetDocumentIDForReview(ctx, args.ID, args.Details)
	}
}

// SetPaymentOutcome publishes a new payment outcome.
func (o *Orchestrator) SetPaymentOutcome(outcome PaymentOutcome) {
	o.logger.Debug("review.outcome", "status", outcome.Status())
	o.outcome.Publish(outcome)
}

// LoadPaymentProviders refreshes the provider list.
func (o *Orchestrator) LoadPaymentProviders(ctx context.Context) {
	o.providers.Publish(Loading[[]entity.PaymentProvider]())
	o.enqueue(ctx, "review.providers", func(ctx context.Context) error {
		_, _ = o.fetchProviders(ctx, false)
		return nil
	}, func(err error) {
		o.providers.Publish(Failure[[]entity.PaymentProvider](err))
	})
}

// Flush waits for all queued work to finish.
func (o *Orchestrator) Flush(ctx context.Context) error {
	return o.queue.Flush(ctx)
}

// Close drains queued work and stops the worker.
func (o *Orchestrator) Close(ctx context.Context) {
	o.queue.Shutdown(ctx)
}

func (o *Orchestrator) capture(args CapturedArguments) {
	o.mu.Lock()
	o.captured = args
	o.mu.Unlock()
}

// enqueue schedules run on the worker; onReject publishes the failure when the
// queue refuses the job.
func (o *Orchestrator) enqueue(ctx context.Context, name string, run func(context.Context) error, onReject func(error)) {
	if err := o.queue.Enqueue(ctx, async.Job{Name: name, Run: run}); err != nil {
		o.logger.Error("review.enqueue.failed", "job", name, "error", err)
		onReject(err)
	}
}

func (o *Orchestrator) fetchExtractions(ctx context.Context, doc entity.Document) {
	start := time.Now()
	bundle, err := o.svc.GetExtractions(ctx, doc)
	if err != nil {
		o.logger.Warn("review.extraction.failed", "document_id", doc.ID, "error", err,
			"retryable", common.IsRetryable(err), "elapsed_ms", time.Since(start).Milliseconds())
		o.details.Publish(Failure[entity.PaymentDetails](err))
		return
	}
	details := DetailsFromExtractions(bundle)
	o.logger.Info("review.extraction.ok", "document_id", doc.ID, "extractions", len(bundle.Specific),
		"elapsed_ms", time.Since(start).Milliseconds())
	o.details.Publish(Success(details))
}

// fetchProviders loads the provider list and publishes it. With ifMissing set
// it returns the already loaded list without a remote call.
func (o *Orchestrator) fetchProviders(ctx context.Context, ifMissing bool) ([]entity.PaymentProvider, error) {
	if ifMissing {
		if st, ok := o.providers.Current(); ok {
			if list, ok := st.Value(); ok {
				return list, nil
			}
		}
		o.providers.Publish(Loading[[]entity.PaymentProvider]())
	}

	start := time.Now()
	list, err := o.svc.ListPaymentProviders(ctx)
	if err != nil {
		o.logger.Warn("review.providers.failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		o.providers.Publish(Failure[[]entity.PaymentProvider](err))
		return nil, err
	}
	o.logger.Info("review.providers.ok", "count", len(list), "elapsed_ms", time.Since(start).Milliseconds())
	o.providers.Publish(Success(list))
	return list, nil
}

// currentDocumentID returns the document under review, if known.
func (o *Orchestrator) currentDocumentID() string {
	if st, ok := o.document.Current(); ok {
		if doc, ok := st.Value(); ok {
			return doc.ID
		}
	}
	switch args := o.LastArguments().(type) {
	case ByDocument:
		return args.Document.ID
	case ByDocumentID:
		return args.ID
	}
	return ""
}

func documentUnavailable(cause error) error {
	return common.NewAppError(common.ErrDocumentUnavailable.Code, common.ErrDocumentUnavailable.Message, cause)
}
