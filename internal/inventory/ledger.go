package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/parkyoungho/marushop-backend/pkg/db"
	"github.com/parkyoungho/marushop-backend/pkg/db/models"
)

// StockExceededError reports a rejected reservation together with the stock
// that is actually available, so the caller can surface it for a UI retry.
type StockExceededError struct {
	ProductID uuid.UUID
	Available int
}

func (e *StockExceededError) Error() string {
	return fmt.Sprintf("stock exceeded for product %s: %d available", e.ProductID, e.Available)
}

// Ledger is the source of truth for per-product available stock.
type Ledger struct {
	db *gorm.DB
}

// NewLedger builds a ledger bound to the provided GORM DB.
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// WithTx returns a ledger bound to the provided transaction.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	if tx == nil {
		return l
	}
	return &Ledger{db: tx}
}

// GetAvailable returns the current stock for the product. A missing row counts
// as zero stock.
func (l *Ledger) GetAvailable(ctx context.Context, productID uuid.UUID) (int, error) {
	var item models.InventoryItem
	err := l.db.WithContext(ctx).First(&item, "product_id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return item.InStock, nil
}

// LockedAvailable reads the stock under a row-level lock. It must be called
// inside a transaction; concurrent cart mutations for the same product
// serialize on this lock so check-then-write sequences cannot interleave.
func (l *Ledger) LockedAvailable(ctx context.Context, productID uuid.UUID) (int, error) {
	var item models.InventoryItem
	err := db.ForUpdate(l.db.WithContext(ctx)).
		First(&item, "product_id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return item.InStock, nil
}

// ReserveAndDecrement atomically consumes qty units of stock. The guarded
// single-statement update never lets in_stock go negative: when the guard
// rejects, no mutation occurs and the current availability is returned inside
// a StockExceededError.
func (l *Ledger) ReserveAndDecrement(ctx context.Context, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("qty must be positive, got %d", qty)
	}

	res := l.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("product_id = ? AND in_stock >= ?", productID, qty).
		UpdateColumn("in_stock", gorm.Expr("in_stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		available, err := l.GetAvailable(ctx, productID)
		if err != nil {
			return err
		}
		return &StockExceededError{ProductID: productID, Available: available}
	}
	return nil
}

// LowStockAlert is emitted when stock falls to or below the configured
// threshold after a decrement.
type LowStockAlert struct {
	ProductID uuid.UUID
	InStock   int
	Threshold int
}

// CheckLowStock returns an alert when the product's stock sits at or below its
// threshold, or nil when no threshold is configured or stock is healthy.
func (l *Ledger) CheckLowStock(ctx context.Context, productID uuid.UUID) (*LowStockAlert, error) {
	var item models.InventoryItem
	err := l.db.WithContext(ctx).First(&item, "product_id = ?", productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if item.LowStockAt == nil || item.InStock > *item.LowStockAt {
		return nil, nil
	}
	return &LowStockAlert{
		ProductID: productID,
		InStock:   item.InStock,
		Threshold: *item.LowStockAt,
	}, nil
}

// SetStock upserts the inventory row. Used by seeding and the admin surface
// that lives outside this service.
func (l *Ledger) SetStock(ctx context.Context, item *models.InventoryItem) error {
	return l.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"in_stock", "low_stock_at"}),
		}).
		Create(item).Error
}
