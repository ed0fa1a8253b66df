package review

import "github.com/joseph-ayodele/payment-review/internal/entity"

// CapturedArguments records the last "set document for review" call so it
// can be replayed. Implemented by ByDocument and ByDocumentID only.
type CapturedArguments interface {
	isCapturedArguments()
}

// ByDocument captures SetDocumentForReview(doc).
type ByDocument struct {
	Document entity.Document
}

// ByDocumentID captures SetDocumentIDForReview(id, details).
type ByDocumentID struct {
	ID      string
	Details *entity.PaymentDetails
}

func (ByDocument) isCapturedArguments()   {}
func (ByDocumentID) isCapturedArguments() {}
