package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/parkyoungho/marushop-backend/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.InventoryItem{}); err != nil {
		t.Fatalf("migrate inventory: %v", err)
	}
	return db
}

func TestReserveAndDecrement(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	product := uuid.New()

	if err := db.Create(&models.InventoryItem{ProductID: product, InStock: 10}).Error; err != nil {
		t.Fatalf("seed inventory: %v", err)
	}

	ledger := NewLedger(db)
	if err := ledger.ReserveAndDecrement(ctx, product, 2); err != nil {
		t.Fatalf("reserve 2: %v", err)
	}

	available, err := ledger.GetAvailable(ctx, product)
	if err != nil {
		t.Fatalf("get available: %v", err)
	}
	if available != 8 {
		t.Fatalf("expected 8 in stock, got %d", available)
	}

	err = ledger.ReserveAndDecrement(ctx, product, 9)
	var exceeded *StockExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("expected StockExceededError, got %v", err)
	}
	if exceeded.Available != 8 {
		t.Fatalf("expected available 8 in error, got %d", exceeded.Available)
	}

	// The rejected reservation must not have mutated anything.
	available, err = ledger.GetAvailable(ctx, product)
	if err != nil {
		t.Fatalf("get available: %v", err)
	}
	if available != 8 {
		t.Fatalf("stock changed after rejected reserve: %d", available)
	}
}

func TestReserveAndDecrementMissingRow(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ledger := NewLedger(db)

	err := ledger.ReserveAndDecrement(context.Background(), uuid.New(), 1)
	var exceeded *StockExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("expected StockExceededError, got %v", err)
	}
	if exceeded.Available != 0 {
		t.Fatalf("expected available 0 for missing row, got %d", exceeded.Available)
	}
}

func TestReserveAndDecrementInvalidQty(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ledger := NewLedger(db)

	if err := ledger.ReserveAndDecrement(context.Background(), uuid.New(), 0); err == nil {
		t.Fatal("expected error for non-positive qty")
	}
}

func TestCheckLowStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	ledger := NewLedger(db)

	threshold := 3
	product := uuid.New()
	if err := db.Create(&models.InventoryItem{ProductID: product, InStock: 5, LowStockAt: &threshold}).Error; err != nil {
		t.Fatalf("seed inventory: %v", err)
	}

	alert, err := ledger.CheckLowStock(ctx, product)
	if err != nil {
		t.Fatalf("check low stock: %v", err)
	}
	if alert != nil {
		t.Fatalf("expected no alert at 5 units, got %+v", alert)
	}

	if err := ledger.ReserveAndDecrement(ctx, product, 3); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	alert, err = ledger.CheckLowStock(ctx, product)
	if err != nil {
		t.Fatalf("check low stock: %v", err)
	}
	if alert == nil {
		t.Fatal("expected alert at 2 units")
	}
	if alert.InStock != 2 || alert.Threshold != 3 {
		t.Fatalf("unexpected alert: %+v", alert)
	}

	// No threshold configured means no alerts at all.
	unmanaged := uuid.New()
	if err := db.Create(&models.InventoryItem{ProductID: unmanaged, InStock: 0}).Error; err != nil {
		t.Fatalf("seed inventory: %v", err)
	}
	alert, err = ledger.CheckLowStock(ctx, unmanaged)
	if err != nil {
		t.Fatalf("check low stock: %v", err)
	}
	if alert != nil {
		t.Fatalf("expected no alert without threshold, got %+v", alert)
	}
}

func TestSetStockUpserts(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	ledger := NewLedger(db)
	product := uuid.New()

	if err := ledger.SetStock(ctx, &models.InventoryItem{ProductID: product, InStock: 4}); err != nil {
		t.Fatalf("set stock: %v", err)
	}
	if err := ledger.SetStock(ctx, &models.InventoryItem{ProductID: product, InStock: 7}); err != nil {
		t.Fatalf("set stock again: %v", err)
	}

	available, err := ledger.GetAvailable(ctx, product)
	if err != nil {
		t.Fatalf("get available: %v", err)
	}
	if available != 7 {
		t.Fatalf("expected 7 after upsert, got %d", available)
	}
}
