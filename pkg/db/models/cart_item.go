package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartItem is a single line in a cart. PriceCents is a snapshot captured when
// the line was added; later catalog price changes do not touch it.
type CartItem struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	CartID     uuid.UUID  `gorm:"column:cart_id;type:uuid;not null;index"`
	ProductID  uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	VariantID  *uuid.UUID `gorm:"column:variant_id;type:uuid"`
	Qty        int        `gorm:"column:qty;not null"`
	PriceCents int        `gorm:"column:price_cents;not null"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *CartItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// SameLine reports whether another (product, variant) pair addresses this line.
func (i CartItem) SameLine(productID uuid.UUID, variantID *uuid.UUID) bool {
	if i.ProductID != productID {
		return false
	}
	if i.VariantID == nil || variantID == nil {
		return i.VariantID == nil && variantID == nil
	}
	return *i.VariantID == *variantID
}
