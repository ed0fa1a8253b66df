package review

import (
	"github.com/joseph-ayodele/payment-review/constants"
	"github.com/joseph-ayodele/payment-review/internal/common"
	"github.com/joseph-ayodele/payment-review/internal/entity"
)

// ValidationMessage reports why one payment field is unacceptable.
type ValidationMessage struct {
	Field  constants.Field  `json:"field"`
	Reason constants.Reason `json:"reason"`
}

// ValidateDetails checks every field of d and returns at most one message per
// field, in field order. An empty result means d can be submitted.
func ValidateDetails(d entity.PaymentDetails) []ValidationMessage {
	v := common.NewValidator().
		Field(string(constants.FieldRecipient), d.Recipient,
			common.Required, common.MaxLength(constants.MaxRecipientLength)).
		Field(string(constants.FieldIBAN), d.IBAN,
			common.Required, common.IBAN).
		Field(string(constants.FieldAmount), d.Amount,
			common.Required, common.PositiveAmount).
		Field(string(constants.FieldPurpose), d.Purpose,
			common.Required, common.MaxLength(constants.MaxPurposeLength))

	msgs := make([]ValidationMessage, 0, len(v.Errors()))
	for _, e := range v.Errors() {
		msgs = append(msgs, ValidationMessage{Field: constants.Field(e.Field), Reason: e.Reason})
	}
	return msgs
}
