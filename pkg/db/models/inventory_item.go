package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem tracks available stock per product. InStock never goes
// negative; decrements are guarded in the same transaction that consumes them.
type InventoryItem struct {
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	InStock    int       `gorm:"column:in_stock;not null;default:0"`
	LowStockAt *int      `gorm:"column:low_stock_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
