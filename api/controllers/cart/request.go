package cart

import "github.com/google/uuid"

type addItemRequest struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Qty       int        `json:"qty" validate:"required,min=1"`
}

type updateQtyRequest struct {
	Qty int `json:"qty" validate:"min=0"`
}
