package constants

// Reason is the machine-readable cause attached to a validation message.
type Reason string

const (
	ReasonEmpty         Reason = "EMPTY"
	ReasonInvalidIBAN   Reason = "INVALID_IBAN"
	ReasonInvalidAmount Reason = "INVALID_AMOUNT"
	ReasonTooLong       Reason = "TOO_LONG"
)

// SEPA credit transfer limits.
const (
	MaxRecipientLength = 70
	MaxPurposeLength   = 140
)
