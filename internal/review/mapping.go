package review

import (
	"strings"

	"github.com/joseph-ayodele/payment-review/constants"
	"github.com/joseph-ayodele/payment-review/internal/common"
	"github.com/joseph-ayodele/payment-review/internal/entity"
)

// DetailsFromExtractions maps an extraction bundle onto payment fields. The
// bundle is kept on the details for later feedback.
func DetailsFromExtractions(bundle entity.ExtractionBundle) entity.PaymentDetails {
	value := func(name string) string {
		if e, ok := bundle.Get(name); ok {
			return strings.TrimSpace(e.Value)
		}
		return ""
	}

	amount, _ := SplitAmount(value(constants.ExtractionAmount))
	if d, err := common.ParseAmount(amount); err == nil {
		amount = d.StringFixed(2)
	}

	kept := bundle.Clone()
	return entity.PaymentDetails{
		Recipient:   value(constants.ExtractionRecipient),
		IBAN:        value(constants.ExtractionIBAN),
		Amount:      amount,
		Purpose:     value(constants.ExtractionPurpose),
		Extractions: &kept,
	}
}

// SplitAmount splits a service amount ("12.50:EUR") into amount and currency.
// The currency is empty when the value carries none.
func SplitAmount(v string) (amount, currency string) {
	amount, currency, _ = strings.Cut(strings.TrimSpace(v), ":")
	return strings.TrimSpace(amount), strings.ToUpper(strings.TrimSpace(currency))
}

// FormatAmount renders a user amount in service form ("12.50:EUR").
func FormatAmount(amount, currency string) (string, error) {
	d, err := common.ParseAmount(amount)
	if err != nil {
		return "", err
	}
	return d.StringFixed(2) + ":" + constants.NormalizeCurrency(currency), nil
}

// FeedbackBundle copies the extractions carried by details and overwrites the
// payment fields with the user's values. Missing payment extractions are added.
// It returns false when details carry no extractions.
func FeedbackBundle(details entity.PaymentDetails, currency string) (entity.ExtractionBundle, bool) {
	if details.Extractions == nil {
		return entity.ExtractionBundle{}, false
	}
	bundle := details.Extractions.Clone()

	if orig, ok := bundle.Get(constants.ExtractionAmount); ok {
		if _, c := SplitAmount(orig.Value); c != "" {
			currency = c
		}
	}

	for _, f := range constants.Fields() {
		name := constants.ExtractionName(f)
		v := fieldValue(details, f)
		if f == constants.FieldAmount {
			if formatted, err := FormatAmount(v, currency); err == nil {
				v = formatted
			}
		}
		e, ok := bundle.Specific[name]
		if !ok {
			e = entity.Extraction{Name: name, Entity: constants.ExtractionEntity(f)}
		}
		e.Value = v
		bundle.Specific[name] = e
	}
	return bundle, true
}

func fieldValue(d entity.PaymentDetails, f constants.Field) string {
	switch f {
	case constants.FieldRecipient:
		return d.Recipient
	case constants.FieldIBAN:
		return d.IBAN
	case constants.FieldAmount:
		return d.Amount
	case constants.FieldPurpose:
		return d.Purpose
	}
	return ""
}
