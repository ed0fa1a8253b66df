package review

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/payment-review/internal/common"
	"github.com/joseph-ayodele/payment-review/internal/entity"
	"github.com/joseph-ayodele/payment-review/internal/requirements"
)

func TestOrchestrator_SetDocumentForReview(t *testing.T) {
	svc := &mockService{}
	o := newTestOrchestrator(t, svc)
	docs := record(t, o.DocumentState())
	details := record(t, o.PaymentDetailsState())

	doc := entity.Document{ID: "doc-1", PageCount: 2}
	o.SetDocumentForReview(context.Background(), doc)

	// Document goes straight to Success without Loading.
	if got := kinds(docs.All()); !slices.Equal(got, []Kind{KindSuccess}) {
		t.Fatalf("document kinds = %v, want [Success]", got)
	}
	flush(t, o)

	if got := kinds(details.All()); !slices.Equal(got, []Kind{KindLoading, KindSuccess}) {
		t.Fatalf("details kinds = %v, want [Loading Success]", got)
	}
	last, _ := details.Last()
	d, _ := last.Value()
	if d.Recipient != "John Doe" || d.IBAN != "DE89370400440532013000" || d.Amount != "12.50" || d.Purpose != "invoice #123" {
		t.Errorf("mapped details = %+v", d)
	}
	if d.Extractions == nil {
		t.Error("extraction metadata not kept on details")
	}
	if calls := svc.ExtractCalls(); len(calls) != 1 || calls[0].ID != "doc-1" {
		t.Errorf("extraction calls = %+v", calls)
	}
	if len(svc.ResolveCalls()) != 0 {
		t.Error("document resolution should not run for a direct document")
	}
	if _, ok := o.LastArguments().(ByDocument); !ok {
		t.Errorf("captured = %T, want ByDocument", o.LastArguments())
	}
}

func TestOrchestrator_SetDocumentForReviewExtractionFailure(t *testing.T) {
	cause := status.Error(codes.Unavailable, "service down")
	svc := &mockService{GetExtractionsFunc: func(context.Context, entity.Document) (entity.ExtractionBundle, error) {
		return entity.ExtractionBundle{}, cause
	}}
	o := newTestOrchestrator(t, svc)
	details := record(t, o.PaymentDetailsState())

	o.SetDocumentForReview(context.Background(), entity.Document{ID: "doc-1"})
	flush(t, o)

	all := details.All()
	if got := kinds(all); !slices.Equal(got, []Kind{KindLoading, KindError}) {
		t.Fatalf("details kinds = %v, want [Loading Error]", got)
	}
	if !errors.Is(all[1].Err(), cause) {
		t.Errorf("cause = %v, want %v", all[1].Err(), cause)
	}
}

func TestOrchestrator_SetDocumentIDForReviewWithPrefilledDetails(t *testing.T) {
	svc := &mockService{}
	o := newTestOrchestrator(t, svc)
	docs := record(t, o.DocumentState())
	details := record(t, o.PaymentDetailsState())

	prefilled := canonicalDetails()
	o.SetDocumentIDForReview(context.Background(), "doc-9", &prefilled)
	flush(t, o)

	all := details.All()
	if got := kinds(all); !slices.Equal(got, []Kind{KindSuccess}) {
		t.Fatalf("details kinds = %v, want [Success]", got)
	}
	if d, _ := all[0].Value(); d.IBAN != prefilled.IBAN || d.Recipient != prefilled.Recipient {
		t.Errorf("details = %+v, want %+v", d, prefilled)
	}
	if n := svc.ExtractCallCount(); n != 0 {
		t.Errorf("extraction called %d times, want 0", n)
	}
	if got := kinds(docs.All()); !slices.Equal(got, []Kind{KindLoading, KindSuccess}) {
		t.Errorf("document kinds = %v, want [Loading Success]", got)
	}
}

func TestOrchestrator_SetDocumentIDForReviewResolves(t *testing.T) {
	svc := &mockService{}
	o := newTestOrchestrator(t, svc)
	docs := record(t, o.DocumentState())
	details := record(t, o.PaymentDetailsState())

	o.SetDocumentIDForReview(context.Background(), "doc-2", nil)
	flush(t, o)

	if got := kinds(docs.All()); !slices.Equal(got, []Kind{KindLoading, KindSuccess}) {
		t.Fatalf("document kinds = %v", got)
	}
	if got := kinds(details.All()); !slices.Equal(got, []Kind{KindLoading, KindSuccess}) {
		t.Fatalf("details kinds = %v", got)
	}
	if calls := svc.ExtractCalls(); len(calls) != 1 || calls[0].ID != "doc-2" {
		t.Errorf("extraction calls = %+v", calls)
	}
}

func TestOrchestrator_DocumentResolutionFailure(t *testing.T) {
	cause := status.Error(codes.NotFound, "no such document")
	svc := &mockService{ResolveDocumentFunc: func(context.Context, string) (entity.Document, error) {
		return entity.Document{}, cause
	}}
	o := newTestOrchestrator(t, svc)
	docs := record(t, o.DocumentState())
	details := record(t, o.PaymentDetailsState())

	o.SetDocumentIDForReview(context.Background(), "missing", nil)
	flush(t, o)

	if got := kinds(docs.All()); !slices.Equal(got, []Kind{KindLoading, KindError}) {
		t.Fatalf("document kinds = %v", got)
	}
	all := details.All()
	if got := kinds(all); !slices.Equal(got, []Kind{KindLoading, KindError}) {
		t.Fatalf("details kinds = %v", got)
	}
	err := all[1].Err()
	if !errors.Is(err, common.ErrDocumentUnavailable) {
		t.Errorf("details cause = %v, want ErrDocumentUnavailable", err)
	}
	if status.Code(err) != codes.Unavailable {
		t.Errorf("details cause code = %v, want Unavailable", status.Code(err))
	}
	if n := svc.ExtractCallCount(); n != 0 {
		t.Errorf("extraction called %d times after failed resolution", n)
	}
}

func TestOrchestrator_RetryWithNothingCaptured(t *testing.T) {
	svc := &mockService{}
	o := newTestOrchestrator(t, svc)
	docs := record(t, o.DocumentState())
	details := record(t, o.PaymentDetailsState())
	outcomes := record(t, o.PaymentOutcomeState())
	providers := record(t, o.PaymentProvidersState())

	o.RetryDocumentReview(context.Background())
	flush(t, o)

	if n := len(docs.All()) + len(details.All()) + len(outcomes.All()) + len(providers.All()); n != 0 {
		t.Fatalf("retry with nothing captured published %d values", n)
	}
	if len(svc.ResolveCalls()) != 0 || svc.ExtractCallCount() != 0 {
		t.Error("retry with nothing captured reached the service")
	}
}

func TestOrchestrator_RetryByDocumentID(t *testing.T) {
	svc := &mockService{}
	o := newTestOrchestrator(t, svc)

	o.SetDocumentIDForReview(context.Background(), "doc-3", nil)
	flush(t, o)

	details := record(t, o.PaymentDetailsState())
	o.RetryDocumentReview(context.Background())
	flush(t, o)

	if got := svc.ResolveCalls(); !slices.Equal(got, []string{"doc-3", "doc-3"}) {
		t.Errorf("resolve calls = %v, want [doc-3 doc-3]", got)
	}
	calls := svc.ExtractCalls()
	if len(calls) != 2 || calls[1].ID != "doc-3" {
		t.Errorf("extraction calls = %+v", calls)
	}
	if got := kinds(details.All()); !slices.Equal(got, []Kind{KindLoading, KindSuccess}) {
		t.Errorf("retry details kinds = %v", got)
	}
}

func TestOrchestrator_RetryByDocument(t *testing.T) {
	svc := &mockService{}
	o := newTestOrchestrator(t, svc)

	o.SetDocumentForReview(context.Background(), entity.Document{ID: "doc-4"})
	flush(t, o)
	o.RetryDocumentReview(context.Background())
	flush(t, o)

	calls := svc.ExtractCalls()
	if len(calls) != 2 || calls[0].ID != "doc-4" || calls[1].ID != "doc-4" {
		t.Errorf("extraction calls = %+v", calls)
	}
	if len(svc.ResolveCalls()) != 0 {
		t.Error("retry of a direct document should not resolve by id")
	}
}

func TestOrchestrator_RetryKeepsPrefilledDetails(t *testing.T) {
	svc := &mockService{}
	o := newTestOrchestrator(t, svc)

	prefilled := canonicalDetails()
	o.SetDocumentIDForReview(context.Background(), "doc-5", &prefilled)
	prefilled.Recipient = "changed after the call"
	flush(t, o)

	details := record(t, o.PaymentDetailsState())
	o.RetryDocumentReview(context.Background())
	flush(t, o)

	all := details.All()
	if got := kinds(all); !slices.Equal(got, []Kind{KindSuccess}) {
		t.Fatalf("details kinds = %v", got)
	}
	if d, _ := all[0].Value(); d.Recipient != "John Doe" {
		t.Errorf("retried recipient = %q, want captured value", d.Recipient)
	}
	if svc.ExtractCallCount() != 0 {
		t.Error("prefilled retry reached extraction")
	}
}

func TestOrchestrator_CheckRequirements(t *testing.T) {
	svc := &mockService{}
	o := newTestOrchestrator(t, svc)

	env := requirements.Environment{InstalledPackages: []string{"com.bank.one"}}
	got := o.CheckRequirements(env)
	if len(got) != 1 || got[0].Code != requirements.CodeProvidersUnavailable {
		t.Fatalf("before providers load: %+v", got)
	}

	o.LoadPaymentProviders(context.Background())
	flush(t, o)

	if got := o.CheckRequirements(env); len(got) != 0 {
		t.Errorf("after providers load: %+v, want none", got)
	}
	if got := o.CheckRequirements(requirements.Environment{InstalledPackages: []string{"com.other"}}); len(got) != 1 || got[0].Code != requirements.CodeBankAppMissing {
		t.Errorf("without bank app: %+v", got)
	}
}

func TestOrchestrator_LoadPaymentProviders(t *testing.T) {
	svc := &mockService{}
	o := newTestOrchestrator(t, svc)
	providers := record(t, o.PaymentProvidersState())

	o.LoadPaymentProviders(context.Background())
	flush(t, o)

	all := providers.All()
	if got := kinds(all); !slices.Equal(got, []Kind{KindLoading, KindSuccess}) {
		t.Fatalf("providers kinds = %v", got)
	}
	if list, _ := all[1].Value(); len(list) != 2 {
		t.Errorf("providers = %+v", list)
	}
}

func TestOrchestrator_SetPaymentOutcome(t *testing.T) {
	o := newTestOrchestrator(t, &mockService{})

	if cur, ok := o.PaymentOutcomeState().Current(); !ok || cur.Status() != "NO_ACTION" {
		t.Fatalf("initial outcome = %v, ok=%v", cur, ok)
	}
	outcomes := record(t, o.PaymentOutcomeState())
	o.SetPaymentOutcome(OutcomeLoading())
	o.SetPaymentOutcome(OutcomeSuccess("pr-9", entity.SelectedBank{Name: "Bank One"}))

	if got := statuses(outcomes.All()); !slices.Equal(got, []string{"LOADING", "SUCCESS"}) {
		t.Errorf("outcomes = %v", got)
	}
}

func TestOrchestrator_LastPublicationWins(t *testing.T) {
	release := make(chan struct{})
	svc := &mockService{}
	svc.GetExtractionsFunc = func(_ context.Context, doc entity.Document) (entity.ExtractionBundle, error) {
		if doc.ID == "old" {
			<-release
		}
		b := canonicalBundle()
		b.Specific["paymentRecipient"] = entity.Extraction{Name: "paymentRecipient", Entity: "companyname", Value: doc.ID}
		return b, nil
	}
	o := newTestOrchestrator(t, svc)
	details := record(t, o.PaymentDetailsState())

	o.SetDocumentForReview(context.Background(), entity.Document{ID: "old"})
	o.SetDocumentForReview(context.Background(), entity.Document{ID: "new"})
	close(release)
	flush(t, o)

	all := details.All()
	if got := kinds(all); !slices.Equal(got, []Kind{KindLoading, KindLoading, KindSuccess, KindSuccess}) {
		t.Fatalf("details kinds = %v", got)
	}
	if d, _ := all[3].Value(); d.Recipient != "new" {
		t.Errorf("final recipient = %q, want the newest cycle", d.Recipient)
	}
}

func TestOrchestrator_RetryFromDetailsSubscriber(t *testing.T) {
	var calls atomic.Int32
	svc := &mockService{GetExtractionsFunc: func(context.Context, entity.Document) (entity.ExtractionBundle, error) {
		if calls.Add(1) == 1 {
			return entity.ExtractionBundle{}, status.Error(codes.Unavailable, "service down")
		}
		return canonicalBundle(), nil
	}}
	o := newTestOrchestrator(t, svc)
	details := record(t, o.PaymentDetailsState())

	var retried atomic.Bool
	unsubscribe := o.PaymentDetailsState().Subscribe(func(st ResultState[entity.PaymentDetails]) {
		if st.Kind() == KindError && retried.CompareAndSwap(false, true) {
			o.RetryDocumentReview(context.Background())
		}
	})
	t.Cleanup(unsubscribe)

	o.SetDocumentForReview(context.Background(), entity.Document{ID: "doc-1"})
	flush(t, o)

	if got := kinds(details.All()); !slices.Equal(got, []Kind{KindLoading, KindError, KindLoading, KindSuccess}) {
		t.Fatalf("details kinds = %v", got)
	}
	if n := svc.ExtractCallCount(); n != 2 {
		t.Errorf("GetExtractions called %d times, want 2", n)
	}
}
