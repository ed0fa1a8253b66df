package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/payment-review/internal/common"
	"github.com/joseph-ayodele/payment-review/internal/extract/rest"
	"github.com/joseph-ayodele/payment-review/internal/requirements"
	"github.com/joseph-ayodele/payment-review/internal/review"
)

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	cfg        *common.Config
	logger     *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "payment-review",
		Short:        "Review extracted payment details and create payment requests",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "optional YAML config file overlaying env settings")

	root.AddCommand(
		newReviewCmd(a),
		newProvidersCmd(a),
		newRequirementsCmd(a),
		newExportCmd(a),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := common.LoadConfigFile(a.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	// Logs go to stderr so JSON results on stdout stay machine-readable.
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Log.SlogLevel(),
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return attr
		},
	}))
	slog.SetDefault(a.logger)
	return nil
}

// newOrchestrator builds the REST-backed orchestrator used by the online subcommands.
func (a *app) newOrchestrator() *review.Orchestrator {
	client := rest.NewClient(rest.ConfigFromService(a.cfg.Service), a.logger)
	return review.NewOrchestrator(client, requirements.NewRuleChecker(), a.logger, review.OptionsFromConfig(a.cfg.Review))
}

// awaitResult blocks until w holds a Success or Error state.
func awaitResult[T any](ctx context.Context, w review.Watchable[review.ResultState[T]]) (review.ResultState[T], error) {
	done := make(chan review.ResultState[T], 1)
	offer := func(st review.ResultState[T]) {
		if st.Kind() == review.KindLoading {
			return
		}
		select {
		case done <- st:
		default:
		}
	}
	unsubscribe := w.Subscribe(offer)
	defer unsubscribe()
	if st, ok := w.Current(); ok {
		offer(st)
	}

	select {
	case st := <-done:
		return st, nil
	case <-ctx.Done():
		return review.ResultState[T]{}, ctx.Err()
	}
}

// awaitOutcome blocks until w holds a terminal payment outcome.
func awaitOutcome(ctx context.Context, w review.Watchable[review.PaymentOutcome]) (review.PaymentOutcome, error) {
	done := make(chan review.PaymentOutcome, 1)
	offer := func(o review.PaymentOutcome) {
		if !o.Status().IsTerminal() {
			return
		}
		select {
		case done <- o:
		default:
		}
	}
	unsubscribe := w.Subscribe(offer)
	defer unsubscribe()
	if o, ok := w.Current(); ok {
		offer(o)
	}

	select {
	case o := <-done:
		return o, nil
	case <-ctx.Done():
		return review.PaymentOutcome{}, ctx.Err()
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

// errorView is the JSON shape of a failed state.
type errorView struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func viewError(err error) *errorView {
	if err == nil {
		return nil
	}
	return &errorView{Code: common.ErrorCode(err), Message: err.Error()}
}
