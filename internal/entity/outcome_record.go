package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/payment-review/constants"
)

// OutcomeRecord is one journaled terminal payment outcome.
type OutcomeRecord struct {
	ID           uuid.UUID               `json:"id"`
	DocumentID   string                  `json:"document_id"`
	Status       constants.OutcomeStatus `json:"status"`
	RequestID    string                  `json:"request_id,omitempty"`
	BankName     string                  `json:"bank_name,omitempty"`
	ProviderID   string                  `json:"provider_id,omitempty"`
	Recipient    string                  `json:"recipient"`
	IBAN         string                  `json:"iban"`
	Amount       string                  `json:"amount"`
	Purpose      string                  `json:"purpose"`
	ErrorCode    string                  `json:"error_code,omitempty"`
	ErrorMessage string                  `json:"error_message,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
}
