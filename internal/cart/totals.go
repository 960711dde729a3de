package cart

import "github.com/parkyoungho/marushop-backend/pkg/db/models"

// Totals is a pure computation over snapshot prices. Shipping and discounts
// are fixed at zero; there is no discount engine in this service.
type Totals struct {
	SubtotalCents int `json:"subtotal_cents"`
	ShippingCents int `json:"shipping_cents"`
	DiscountCents int `json:"discount_cents"`
	TotalCents    int `json:"total_cents"`
}

// ComputeTotals sums line snapshots. It never consults the live catalog.
func ComputeTotals(items []models.CartItem) Totals {
	var subtotal int
	for _, item := range items {
		subtotal += item.PriceCents * item.Qty
	}
	return Totals{
		SubtotalCents: subtotal,
		TotalCents:    subtotal,
	}
}
