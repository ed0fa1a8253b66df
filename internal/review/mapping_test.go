package review

import (
	"testing"

	"github.com/joseph-ayodele/payment-review/internal/entity"
)

func TestDetailsFromExtractions(t *testing.T) {
	d := DetailsFromExtractions(canonicalBundle())
	want := canonicalDetails()
	if d.Recipient != want.Recipient || d.IBAN != want.IBAN || d.Amount != want.Amount || d.Purpose != want.Purpose {
		t.Fatalf("DetailsFromExtractions() = %+v, want %+v", d, want)
	}
	if d.Extractions == nil || len(d.Extractions.Specific) != 4 {
		t.Errorf("extractions = %+v", d.Extractions)
	}
}

func TestDetailsFromExtractions_PartialBundle(t *testing.T) {
	d := DetailsFromExtractions(entity.ExtractionBundle{Specific: map[string]entity.Extraction{
		"amountToPay": {Name: "amountToPay", Entity: "amount", Value: "7.5:USD"},
	}})
	if d.Amount != "7.50" {
		t.Errorf("amount = %q, want 7.50", d.Amount)
	}
	if d.Recipient != "" || d.IBAN != "" || d.Purpose != "" {
		t.Errorf("missing extractions should map to empty fields: %+v", d)
	}
}

func TestDetailsFromExtractions_DoesNotAliasBundle(t *testing.T) {
	bundle := canonicalBundle()
	d := DetailsFromExtractions(bundle)
	bundle.Specific["iban"] = entity.Extraction{Value: "mutated"}
	if e, _ := d.Extractions.Get("iban"); e.Value == "mutated" {
		t.Error("details share the caller's bundle")
	}
}

func TestSplitAndFormatAmount(t *testing.T) {
	amount, currency := SplitAmount(" 12.50:eur ")
	if amount != "12.50" || currency != "EUR" {
		t.Errorf("SplitAmount = (%q, %q)", amount, currency)
	}
	amount, currency = SplitAmount("3")
	if amount != "3" || currency != "" {
		t.Errorf("SplitAmount without currency = (%q, %q)", amount, currency)
	}

	tests := []struct {
		amount, currency, want string
	}{
		{"12.5", "EUR", "12.50:EUR"},
		{"12,5", "eur", "12.50:EUR"},
		{"3", "", "3.00:EUR"},
		{"1000.9", "USD", "1000.90:USD"},
		{"12.500", "EUR", "12.50:EUR"},
	}
	for _, tt := range tests {
		got, err := FormatAmount(tt.amount, tt.currency)
		if err != nil || got != tt.want {
			t.Errorf("FormatAmount(%q, %q) = %q, %v; want %q", tt.amount, tt.currency, got, err, tt.want)
		}
	}
	for _, bad := range []string{"abc", "12.505", "0.004", "1e3"} {
		if _, err := FormatAmount(bad, "EUR"); err == nil {
			t.Errorf("FormatAmount(%q) should fail", bad)
		}
	}
}

func TestFeedbackBundle(t *testing.T) {
	if _, ok := FeedbackBundle(canonicalDetails(), "EUR"); ok {
		t.Fatal("details without extractions should produce no feedback")
	}

	bundle := entity.ExtractionBundle{Specific: map[string]entity.Extraction{
		"iban":        {Name: "iban", Entity: "iban", Value: "DE00", Box: &entity.Box{Page: 1}},
		"amountToPay": {Name: "amountToPay", Entity: "amount", Value: "10.00:CHF"},
		"dueDate":     {Name: "dueDate", Entity: "date", Value: "2024-06-01"},
	}}
	d := canonicalDetails()
	d.Extractions = &bundle

	fb, ok := FeedbackBundle(d, "EUR")
	if !ok {
		t.Fatal("FeedbackBundle returned no bundle")
	}
	if e, _ := fb.Get("iban"); e.Value != d.IBAN || e.Box == nil {
		t.Errorf("iban feedback = %+v", e)
	}
	if e, _ := fb.Get("amountToPay"); e.Value != "12.50:CHF" {
		t.Errorf("amount feedback = %q, want original currency kept", e.Value)
	}
	if e, ok := fb.Get("paymentRecipient"); !ok || e.Entity != "companyname" || e.Value != "John Doe" {
		t.Errorf("added recipient = %+v, ok=%v", e, ok)
	}
	if e, ok := fb.Get("paymentPurpose"); !ok || e.Entity != "text" {
		t.Errorf("added purpose = %+v, ok=%v", e, ok)
	}
	if _, ok := fb.Get("dueDate"); !ok {
		t.Error("unrelated extractions should be kept")
	}
	if bundle.Specific["iban"].Value != "DE00" {
		t.Error("FeedbackBundle mutated the source bundle")
	}
}
