package enums

// PaymentProvider identifies which external payment rail confirmed a payment.
type PaymentProvider string

const (
	PaymentProviderStripe PaymentProvider = "STRIPE"
	PaymentProviderToss   PaymentProvider = "TOSS"
)

func (p PaymentProvider) String() string {
	return string(p)
}

func (p PaymentProvider) Valid() bool {
	switch p {
	case PaymentProviderStripe, PaymentProviderToss:
		return true
	}
	return false
}

// PaymentStatus reflects the provider-side state captured at record time.
type PaymentStatus string

const (
	PaymentStatusSucceeded PaymentStatus = "SUCCEEDED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

func (s PaymentStatus) String() string {
	return string(s)
}
