package enums

// Currency is an ISO 4217 code. Amounts are always integer minor units.
type Currency string

const (
	CurrencyKRW Currency = "KRW"
	CurrencyUSD Currency = "USD"
)

func (c Currency) String() string {
	return string(c)
}
