package extract

import (
	"context"

	"github.com/joseph-ayodele/payment-review/internal/entity"
)

// Service is the remote document / extraction / payment service.
// Transport failures are returned as gRPC status errors.
type Service interface {
	ResolveDocument(ctx context.Context, id string) (entity.Document, error)
	GetExtractions(ctx context.Context, doc entity.Document) (entity.ExtractionBundle, error)
	ListPaymentProviders(ctx context.Context) ([]entity.PaymentProvider, error)
	CreatePaymentRequest(ctx context.Context, in PaymentRequestInput) (string, error)
	SendFeedback(ctx context.Context, doc entity.Document, corrected entity.ExtractionBundle) error
}

// PaymentRequestInput is what the service needs to create a payment request.
type PaymentRequestInput struct {
	ProviderID string `json:"paymentProvider"`
	Recipient  string `json:"recipient"`
	IBAN       string `json:"iban"`
	Amount     string `json:"amount"` // "12.50:EUR"
	Purpose    string `json:"purpose"`
}
