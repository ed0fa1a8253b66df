package entity

// PaymentDetails holds the user-editable payment fields. It is a value type:
// every read hands out a snapshot.
type PaymentDetails struct {
	Recipient   string            `json:"recipient"`
	IBAN        string            `json:"iban"`
	Amount      string            `json:"amount"`
	Purpose     string            `json:"purpose"`
	Extractions *ExtractionBundle `json:"extractions,omitempty"`
}

// Clone returns a copy that shares no extraction metadata with d.
func (d PaymentDetails) Clone() PaymentDetails {
	out := d
	if d.Extractions != nil {
		b := d.Extractions.Clone()
		out.Extractions = &b
	}
	return out
}

// PaymentProvider is a bank/payment app known to the remote service.
type PaymentProvider struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	PackageName   string `json:"package_name"`
	MinAppVersion string `json:"min_app_version,omitempty"`
	IconURL       string `json:"icon_url,omitempty"`
}

// SelectedBank is the user's bank choice. ProviderID may be empty, in which
// case it is resolved through the provider list by PackageName.
type SelectedBank struct {
	Name        string `json:"name"`
	PackageName string `json:"package_name"`
	ProviderID  string `json:"provider_id,omitempty"`
}
