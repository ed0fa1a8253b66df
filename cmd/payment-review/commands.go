package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/payment-review/internal/async"
	"github.com/joseph-ayodele/payment-review/internal/common"
	"github.com/joseph-ayodele/payment-review/internal/entity"
	"github.com/joseph-ayodele/payment-review/internal/export"
	"github.com/joseph-ayodele/payment-review/internal/journal"
	"github.com/joseph-ayodele/payment-review/internal/repository"
	"github.com/joseph-ayodele/payment-review/internal/requirements"
	"github.com/joseph-ayodele/payment-review/internal/review"
)

const dateLayout = "2006-01-02"

type reviewFlags struct {
	documentID   string
	recipient    string
	iban         string
	amount       string
	purpose      string
	bankPackage  string
	bankProvider string
	submit       bool
}

type reviewReport struct {
	DocumentID string                     `json:"document_id"`
	Details    *entity.PaymentDetails     `json:"details,omitempty"`
	DetailsErr *errorView                 `json:"details_error,omitempty"`
	Providers  []entity.PaymentProvider   `json:"providers,omitempty"`
	Validation []review.ValidationMessage `json:"validation,omitempty"`
	Outcome    *outcomeView               `json:"outcome,omitempty"`
}

type outcomeView struct {
	Status    string               `json:"status"`
	RequestID string               `json:"request_id,omitempty"`
	Bank      *entity.SelectedBank `json:"bank,omitempty"`
	Error     *errorView           `json:"error,omitempty"`
}

func newReviewCmd(a *app) *cobra.Command {
	var f reviewFlags
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Load a document's payment details and optionally submit a payment request",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runReview(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.documentID, "document-id", "", "document to review (required)")
	cmd.Flags().StringVar(&f.recipient, "recipient", "", "override the extracted recipient")
	cmd.Flags().StringVar(&f.iban, "iban", "", "override the extracted IBAN")
	cmd.Flags().StringVar(&f.amount, "amount", "", "override the extracted amount")
	cmd.Flags().StringVar(&f.purpose, "purpose", "", "override the extracted purpose")
	cmd.Flags().StringVar(&f.bankPackage, "bank-package", "", "package name of the selected bank app")
	cmd.Flags().StringVar(&f.bankProvider, "bank-provider", "", "provider id of the selected bank, skips lookup")
	cmd.Flags().BoolVar(&f.submit, "submit", false, "submit the payment request after review")
	_ = cmd.MarkFlagRequired("document-id")
	return cmd
}

func (a *app) runReview(cmd *cobra.Command, f reviewFlags) error {
	ctx, reqID := common.EnsureRequestID(cmd.Context())
	logger := a.logger.With("req_id", reqID)

	orch := a.newOrchestrator()
	defer orch.Close(context.Background())
	ctrl := review.NewController(orch, logger)
	defer ctrl.Close()

	if f.submit {
		rec, closeJournal, err := a.openJournal(ctx)
		if err != nil {
			return err
		}
		defer closeJournal()
		detach := rec.Attach(ctrl.Submissions())
		defer detach()
	}

	orch.SetDocumentIDForReview(ctx, f.documentID, nil)
	orch.LoadPaymentProviders(ctx)

	var (
		details   review.ResultState[entity.PaymentDetails]
		providers review.ResultState[[]entity.PaymentProvider]
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		details, err = awaitResult(gctx, orch.PaymentDetailsState())
		return err
	})
	g.Go(func() error {
		var err error
		providers, err = awaitResult(gctx, orch.PaymentProvidersState())
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	report := reviewReport{DocumentID: f.documentID}
	if list, ok := providers.Value(); ok {
		report.Providers = list
	}
	if _, ok := details.Value(); !ok {
		report.DetailsErr = viewError(details.Err())
		logger.Warn("review.cli.details_failed", "document_id", f.documentID, "error", details.Err())
		return printJSON(cmd, report)
	}

	applyOverrides(ctrl, f)
	d := ctrl.Details()
	report.Details = &d

	if !f.submit {
		ctrl.Validate()
		if st, ok := ctrl.ValidationState().Current(); ok {
			report.Validation = st
		}
		return printJSON(cmd, report)
	}

	if !ctrl.SubmitPayment(ctx, selectedBank(f)) {
		if st, ok := ctrl.ValidationState().Current(); ok {
			report.Validation = st
		}
		return printJSON(cmd, report)
	}
	outcome, err := awaitOutcome(ctx, orch.PaymentOutcomeState())
	if err != nil {
		return err
	}
	// The submission record is published right after the outcome.
	if err := orch.Flush(ctx); err != nil {
		return err
	}
	report.Outcome = viewOutcome(outcome)
	return printJSON(cmd, report)
}

func applyOverrides(ctrl *review.Controller, f reviewFlags) {
	if f.recipient != "" {
		ctrl.SetRecipient(f.recipient)
	}
	if f.iban != "" {
		ctrl.SetIBAN(f.iban)
	}
	if f.amount != "" {
		ctrl.SetAmount(f.amount)
	}
	if f.purpose != "" {
		ctrl.SetPurpose(f.purpose)
	}
}

func selectedBank(f reviewFlags) *entity.SelectedBank {
	if f.bankPackage == "" && f.bankProvider == "" {
		return nil
	}
	return &entity.SelectedBank{
		Name:        f.bankPackage,
		PackageName: f.bankPackage,
		ProviderID:  f.bankProvider,
	}
}

func viewOutcome(o review.PaymentOutcome) *outcomeView {
	v := &outcomeView{Status: string(o.Status()), Error: viewError(o.Err())}
	if id, bank, ok := o.Success(); ok {
		v.RequestID = id
		v.Bank = &bank
	}
	return v
}

// openJournal opens the outcome database and starts a recorder on it. The
// returned func flushes pending writes and closes everything.
func (a *app) openJournal(ctx context.Context) (*journal.Recorder, func(), error) {
	db, err := repository.Open(ctx, repository.ConfigFromDatabase(a.cfg.Database), a.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open journal: %w", err)
	}
	if err := repository.HealthCheck(ctx, db, a.cfg.Database.DialTimeout, a.logger); err != nil {
		repository.Close(db, a.logger)
		return nil, nil, fmt.Errorf("journal health: %w", err)
	}
	repo := repository.NewOutcomeRepository(db, a.logger)
	if err := repo.EnsureSchema(ctx); err != nil {
		repository.Close(db, a.logger)
		return nil, nil, err
	}
	rec := journal.NewRecorder(repo, a.logger,
		async.WithWorkers(a.cfg.Journal.Workers),
		async.WithJobTimeout(a.cfg.Database.DialTimeout+10*time.Second),
	)
	return rec, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := rec.Flush(shutdownCtx); err != nil {
			a.logger.Warn("journal.flush.failed", "error", err)
		}
		rec.Close(shutdownCtx)
		repository.Close(db, a.logger)
	}, nil
}

func newProvidersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the payment providers known to the service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			orch := a.newOrchestrator()
			defer orch.Close(context.Background())

			ctx, _ := common.EnsureRequestID(cmd.Context())
			orch.LoadPaymentProviders(ctx)
			st, err := awaitResult(ctx, orch.PaymentProvidersState())
			if err != nil {
				return err
			}
			list, ok := st.Value()
			if !ok {
				return st.Err()
			}
			return printJSON(cmd, list)
		},
	}
}

func newRequirementsCmd(a *app) *cobra.Command {
	var installed []string
	cmd := &cobra.Command{
		Use:   "requirements",
		Short: "Report unmet payment requirements for the given installed packages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			orch := a.newOrchestrator()
			defer orch.Close(context.Background())

			ctx, _ := common.EnsureRequestID(cmd.Context())
			orch.LoadPaymentProviders(ctx)
			if _, err := awaitResult(ctx, orch.PaymentProvidersState()); err != nil {
				return err
			}
			unmet := orch.CheckRequirements(requirements.Environment{InstalledPackages: installed})
			if unmet == nil {
				unmet = []requirements.Requirement{}
			}
			return printJSON(cmd, unmet)
		},
	}
	cmd.Flags().StringSliceVar(&installed, "installed", nil, "comma-separated installed app package names")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var out, fromStr, toStr string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the outcome journal to an XLSX file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, err := parseDate("from", fromStr)
			if err != nil {
				return err
			}
			to, err := parseDate("to", toStr)
			if err != nil {
				return err
			}
			if from != nil && to != nil && to.Before(*from) {
				return common.InvalidArgumentError("--to must not be before --from")
			}

			ctx := cmd.Context()
			db, err := repository.Open(ctx, repository.ConfigFromDatabase(a.cfg.Database), a.logger)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer repository.Close(db, a.logger)
			repo := repository.NewOutcomeRepository(db, a.logger)
			if err := repo.EnsureSchema(ctx); err != nil {
				return err
			}

			data, err := export.NewService(repo, a.logger).ExportOutcomesXLSX(ctx, from, to)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			a.logger.Info("export.written", "path", out, "bytes", len(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "outcomes.xlsx", "output file")
	cmd.Flags().StringVar(&fromStr, "from", "", "first day to include (YYYY-MM-DD)")
	cmd.Flags().StringVar(&toStr, "to", "", "last day to include (YYYY-MM-DD)")
	return cmd
}

func parseDate(flag, v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, v, time.Local)
	if err != nil {
		return nil, common.InvalidArgumentErrorf("--%s: %v", flag, err)
	}
	return &t, nil
}
