package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parkyoungho/marushop-backend/pkg/enums"
)

// Order is created exactly once per successful finalization. Monetary fields
// are immutable snapshots; only Status and shipping tracking mutate later.
type Order struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID        uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	Status        enums.OrderStatus `gorm:"column:status;type:text;not null;default:'PAID'"`
	SubtotalCents int               `gorm:"column:subtotal_cents;not null"`
	TotalCents    int               `gorm:"column:total_cents;not null"`
	Currency      enums.Currency    `gorm:"column:currency;type:text;not null"`
	Items         []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Shipping      *ShippingRecord   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payment       *Payment          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
