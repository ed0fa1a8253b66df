package constants

import "strings"

// Field identifies a user-editable payment field.
type Field string

const (
	FieldRecipient Field = "recipient"
	FieldIBAN      Field = "iban"
	FieldAmount    Field = "amount"
	FieldPurpose   Field = "purpose"
)

var allFields = []Field{
	FieldRecipient,
	FieldIBAN,
	FieldAmount,
	FieldPurpose,
}

// Fields returns the payment fields in display order.
func Fields() []Field {
	out := make([]Field, len(allFields))
	copy(out, allFields)
	return out
}

// Extraction names used by the remote document service.
const (
	ExtractionRecipient = "paymentRecipient"
	ExtractionIBAN      = "iban"
	ExtractionAmount    = "amountToPay"
	ExtractionPurpose   = "paymentPurpose"
)

// Extraction entities reported alongside the names above.
const (
	EntityCompanyName = "companyname"
	EntityIBAN        = "iban"
	EntityAmount      = "amount"
	EntityText        = "text"
)

// ExtractionName maps a payment field to its extraction name.
func ExtractionName(f Field) string {
	switch f {
	case FieldRecipient:
		return ExtractionRecipient
	case FieldIBAN:
		return ExtractionIBAN
	case FieldAmount:
		return ExtractionAmount
	case FieldPurpose:
		return ExtractionPurpose
	}
	return ""
}

// ExtractionEntity maps a payment field to the entity the service expects in feedback.
func ExtractionEntity(f Field) string {
	switch f {
	case FieldRecipient:
		return EntityCompanyName
	case FieldIBAN:
		return EntityIBAN
	case FieldAmount:
		return EntityAmount
	case FieldPurpose:
		return EntityText
	}
	return ""
}

// DefaultCurrency is used when neither config nor extraction carries one.
const DefaultCurrency = "EUR"

// NormalizeCurrency upper-cases and trims an ISO 4217 code, falling back to DefaultCurrency.
func NormalizeCurrency(code string) string {
	c := strings.ToUpper(strings.TrimSpace(code))
	if c == "" {
		return DefaultCurrency
	}
	return c
}
