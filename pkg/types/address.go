package types

import "strings"

// Address is the shipping destination supplied at checkout. It is copied into
// the order's shipping record; the cart layer never stores it.
type Address struct {
	RecipientName string  `json:"recipient_name" validate:"required"`
	Line1         string  `json:"line1" validate:"required"`
	Line2         *string `json:"line2,omitempty"`
	City          string  `json:"city" validate:"required"`
	PostalCode    string  `json:"postal_code" validate:"required"`
	Country       string  `json:"country" validate:"required,len=2"`
}

// Normalize trims whitespace and uppercases the country code.
func (a *Address) Normalize() {
	a.RecipientName = strings.TrimSpace(a.RecipientName)
	a.Line1 = strings.TrimSpace(a.Line1)
	a.City = strings.TrimSpace(a.City)
	a.PostalCode = strings.TrimSpace(a.PostalCode)
	a.Country = strings.ToUpper(strings.TrimSpace(a.Country))
}
