package cart

import (
	"github.com/google/uuid"

	cartsvc "github.com/parkyoungho/marushop-backend/internal/cart"
	"github.com/parkyoungho/marushop-backend/pkg/db/models"
)

type cartResponse struct {
	ID     uuid.UUID          `json:"id"`
	UserID *uuid.UUID         `json:"user_id,omitempty"`
	Items  []cartItemResponse `json:"items"`
	Totals cartsvc.Totals     `json:"totals"`
}

type cartItemResponse struct {
	ID         uuid.UUID  `json:"id"`
	ProductID  uuid.UUID  `json:"product_id"`
	VariantID  *uuid.UUID `json:"variant_id,omitempty"`
	Qty        int        `json:"qty"`
	PriceCents int        `json:"price_cents"`
}

func newCartResponse(record *models.Cart) cartResponse {
	items := make([]cartItemResponse, 0, len(record.Items))
	for _, item := range record.Items {
		items = append(items, cartItemResponse{
			ID:         item.ID,
			ProductID:  item.ProductID,
			VariantID:  item.VariantID,
			Qty:        item.Qty,
			PriceCents: item.PriceCents,
		})
	}
	return cartResponse{
		ID:     record.ID,
		UserID: record.UserID,
		Items:  items,
		Totals: cartsvc.ComputeTotals(record.Items),
	}
}
