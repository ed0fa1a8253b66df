package review

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/joseph-ayodele/payment-review/internal/entity"
	"github.com/joseph-ayodele/payment-review/internal/extract"
)

// mockService is a configurable extract.Service. Nil ...Func fields fall back
// to canned successful responses.
type mockService struct {
	mu sync.Mutex

	ResolveDocumentFunc      func(ctx context.Context, id string) (entity.Document, error)
	GetExtractionsFunc       func(ctx context.Context, doc entity.Document) (entity.ExtractionBundle, error)
	ListPaymentProvidersFunc func(ctx context.Context) ([]entity.PaymentProvider, error)
	CreatePaymentRequestFunc func(ctx context.Context, in extract.PaymentRequestInput) (string, error)
	SendFeedbackFunc         func(ctx context.Context, doc entity.Document, corrected entity.ExtractionBundle) error

	resolveCalls   []string
	extractCalls   []entity.Document
	providersCalls int
	createCalls    []extract.PaymentRequestInput
	feedbackCalls  []entity.ExtractionBundle
}

var _ extract.Service = (*mockService)(nil)

func (m *mockService) ResolveDocument(ctx context.Context, id string) (entity.Document, error) {
	m.mu.Lock()
	m.resolveCalls = append(m.resolveCalls, id)
	fn := m.ResolveDocumentFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, id)
	}
	return entity.Document{ID: id, PageCount: 1}, nil
}

func (m *mockService) GetExtractions(ctx context.Context, doc entity.Document) (entity.ExtractionBundle, error) {
	m.mu.Lock()
	m.extractCalls = append(m.extractCalls, doc)
	fn := m.GetExtractionsFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, doc)
	}
	return canonicalBundle(), nil
}

func (m *mockService) ListPaymentProviders(ctx context.Context) ([]entity.PaymentProvider, error) {
	m.mu.Lock()
	m.providersCalls++
	fn := m.ListPaymentProvidersFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	return testProviders(), nil
}

func (m *mockService) CreatePaymentRequest(ctx context.Context, in extract.PaymentRequestInput) (string, error) {
	m.mu.Lock()
	m.createCalls = append(m.createCalls, in)
	fn := m.CreatePaymentRequestFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, in)
	}
	return "pr-1", nil
}

func (m *mockService) SendFeedback(ctx context.Context, doc entity.Document, corrected entity.ExtractionBundle) error {
	m.mu.Lock()
	m.feedbackCalls = append(m.feedbackCalls, corrected)
	fn := m.SendFeedbackFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, doc, corrected)
	}
	return nil
}

func (m *mockService) ResolveCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.resolveCalls)
}

func (m *mockService) ExtractCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.extractCalls)
}

func (m *mockService) ExtractCalls() []entity.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.extractCalls)
}

func (m *mockService) ProvidersCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.providersCalls
}

func (m *mockService) CreateCalls() []extract.PaymentRequestInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.createCalls)
}

func (m *mockService) FeedbackCalls() []entity.ExtractionBundle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.feedbackCalls)
}

// recorder collects every value published on a Watchable.
type recorder[T any] struct {
	mu     sync.Mutex
	values []T
}

func record[T any](t *testing.T, w Watchable[T]) *recorder[T] {
	t.Helper()
	r := &recorder[T]{}
	unsubscribe := w.Subscribe(func(v T) {
		r.mu.Lock()
		r.values = append(r.values, v)
		r.mu.Unlock()
	})
	t.Cleanup(unsubscribe)
	return r
}

func (r *recorder[T]) All() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.values)
}

func (r *recorder[T]) Last() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero T
	if len(r.values) == 0 {
		return zero, false
	}
	return r.values[len(r.values)-1], true
}

func kinds[T any](states []ResultState[T]) []Kind {
	out := make([]Kind, len(states))
	for i, s := range states {
		out[i] = s.Kind()
	}
	return out
}

func statuses(outcomes []PaymentOutcome) []string {
	out := make([]string, len(outcomes))
	for i, o := range outcomes {
		out[i] = string(o.Status())
	}
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func canonicalDetails() entity.PaymentDetails {
	return entity.PaymentDetails{
		Recipient: "John Doe",
		IBAN:      "DE89370400440532013000",
		Amount:    "12.50",
		Purpose:   "invoice #123",
	}
}

func canonicalBundle() entity.ExtractionBundle {
	return entity.ExtractionBundle{Specific: map[string]entity.Extraction{
		"paymentRecipient": {Name: "paymentRecipient", Entity: "companyname", Value: "John Doe"},
		"iban":             {Name: "iban", Entity: "iban", Value: "DE89370400440532013000"},
		"amountToPay":      {Name: "amountToPay", Entity: "amount", Value: "12.50:EUR"},
		"paymentPurpose":   {Name: "paymentPurpose", Entity: "text", Value: "invoice #123"},
	}}
}

func testProviders() []entity.PaymentProvider {
	return []entity.PaymentProvider{
		{ID: "prov-1", Name: "Bank One", PackageName: "com.bank.one"},
		{ID: "prov-2", Name: "Bank Two", PackageName: "com.bank.two"},
	}
}

func newTestOrchestrator(t *testing.T, svc *mockService) *Orchestrator {
	t.Helper()
	o := NewOrchestrator(svc, nil, testLogger(), Options{Currency: "EUR", JobTimeout: 5 * time.Second, QueueSize: 16})
	t.Cleanup(func() { o.Close(context.Background()) })
	return o
}

func flush(t *testing.T, o *Orchestrator) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.Flush(ctx); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
}
