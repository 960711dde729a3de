package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parkyoungho/marushop-backend/pkg/enums"
)

// ShippingRecord stores the address snapshot and the locally generated
// tracking number. Real carrier integration is out of scope; the tracking
// number is a placeholder with a stable format.
type ShippingRecord struct {
	ID            uuid.UUID     `gorm:"column:id;type:uuid;primaryKey"`
	OrderID       uuid.UUID     `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	RecipientName string        `gorm:"column:recipient_name;not null"`
	Line1         string        `gorm:"column:line1;not null"`
	Line2         *string       `gorm:"column:line2"`
	City          string        `gorm:"column:city;not null"`
	PostalCode    string        `gorm:"column:postal_code;not null"`
	Country       string        `gorm:"column:country;not null"`
	Carrier       enums.Carrier `gorm:"column:carrier;type:text;not null"`
	TrackingNo    string        `gorm:"column:tracking_no;not null"`
	Status        string        `gorm:"column:status;not null;default:'preparing'"`
	CreatedAt     time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *ShippingRecord) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
