package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parkyoungho/marushop-backend/pkg/enums"
)

// UniquePaymentProviderReference names the constraint that guarantees at most
// one order per (provider, provider_reference) pair. It is the correctness
// backstop when the finalize pre-check races.
const UniquePaymentProviderReference = "uq_payments_provider_reference"

// Payment links a provider confirmation to exactly one order. Insert-only.
type Payment struct {
	ID                uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrderID           uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	Provider          enums.PaymentProvider `gorm:"column:provider;type:text;not null;uniqueIndex:uq_payments_provider_reference"`
	ProviderReference string                `gorm:"column:provider_reference;type:text;not null;uniqueIndex:uq_payments_provider_reference"`
	AmountCents       int                   `gorm:"column:amount_cents;not null"`
	Currency          enums.Currency        `gorm:"column:currency;type:text;not null"`
	Status            enums.PaymentStatus   `gorm:"column:status;type:text;not null;default:'SUCCEEDED'"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
