package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/parkyoungho/marushop-backend/internal/catalog"
	"github.com/parkyoungho/marushop-backend/internal/inventory"
	pkgdb "github.com/parkyoungho/marushop-backend/pkg/db"
	"github.com/parkyoungho/marushop-backend/pkg/db/models"
	"github.com/parkyoungho/marushop-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:cart_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.Product{},
		&models.ProductVariant{},
		&models.InventoryItem{},
		&models.Cart{},
		&models.CartItem{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(
		NewRepository(conn),
		pkgdb.NewWithConn(conn),
		catalog.NewRepository(conn),
		inventory.NewLedger(conn),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedProduct(t *testing.T, conn *gorm.DB, priceCents, inStock int) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:       "Test Product " + uuid.NewString()[:8],
		SKU:        "SKU-" + uuid.NewString()[:8],
		PriceCents: priceCents,
		Currency:   enums.CurrencyKRW,
		IsActive:   true,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	if err := conn.Create(&models.InventoryItem{ProductID: product.ID, InStock: inStock}).Error; err != nil {
		t.Fatalf("seed inventory: %v", err)
	}
	return product
}

func mustAdd(t *testing.T, svc Service, identity Identity, productID uuid.UUID, qty int) *models.Cart {
	t.Helper()
	record, err := svc.AddItem(context.Background(), identity, AddItemInput{ProductID: productID, Qty: qty})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	return record
}

func lineFor(record *models.Cart, productID uuid.UUID) *models.CartItem {
	for i := range record.Items {
		if record.Items[i].ProductID == productID {
			return &record.Items[i]
		}
	}
	return nil
}
