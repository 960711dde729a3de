package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderItem snapshots name/sku/qty/price at order time, fully decoupled from
// the live catalog row.
type OrderItem struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID  *uuid.UUID `gorm:"column:product_id;type:uuid"`
	Name       string     `gorm:"column:name;not null"`
	SKU        string     `gorm:"column:sku;not null"`
	Qty        int        `gorm:"column:qty;not null"`
	PriceCents int        `gorm:"column:price_cents;not null"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
