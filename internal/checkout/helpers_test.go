package checkout

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/parkyoungho/marushop-backend/internal/cart"
	"github.com/parkyoungho/marushop-backend/internal/catalog"
	"github.com/parkyoungho/marushop-backend/internal/inventory"
	"github.com/parkyoungho/marushop-backend/internal/orders"
	"github.com/parkyoungho/marushop-backend/internal/payments"
	"github.com/parkyoungho/marushop-backend/internal/users"
	"github.com/parkyoungho/marushop-backend/pkg/config"
	pkgdb "github.com/parkyoungho/marushop-backend/pkg/db"
	"github.com/parkyoungho/marushop-backend/pkg/db/models"
	"github.com/parkyoungho/marushop-backend/pkg/enums"
	"github.com/parkyoungho/marushop-backend/pkg/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:checkout_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = conn.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.ProductVariant{},
		&models.InventoryItem{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.ShippingRecord{},
		&models.Payment{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

// recordingDispatcher captures finalized events instead of running effects.
type recordingDispatcher struct {
	events []Event
}

func (d *recordingDispatcher) OrderFinalized(_ context.Context, evt Event) {
	d.events = append(d.events, evt)
}

// contestedRunner runs contend once between the idempotency gate and the
// finalization transaction, standing in for a concurrent finalization that
// commits first.
type contestedRunner struct {
	inner   txRunner
	contend func() error
}

func (r *contestedRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if r.contend != nil {
		contend := r.contend
		r.contend = nil
		if err := contend(); err != nil {
			return err
		}
	}
	return r.inner.WithTx(ctx, fn)
}

func newTestService(t *testing.T, conn *gorm.DB, effects effectDispatcher) Service {
	t.Helper()
	return newTestServiceWithRunner(t, pkgdb.NewWithConn(conn), conn, effects)
}

func newTestServiceWithRunner(t *testing.T, runner txRunner, conn *gorm.DB, effects effectDispatcher) Service {
	t.Helper()
	svc, err := NewService(
		runner,
		cart.NewRepository(conn),
		orders.NewRepository(conn),
		users.NewRepository(conn),
		payments.NewLedger(conn),
		inventory.NewLedger(conn),
		catalog.NewRepository(conn),
		effects,
		nil,
		nil,
		config.CheckoutConfig{DefaultCurrency: "KRW"},
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seedProduct(t *testing.T, conn *gorm.DB, priceCents, inStock int, lowStockAt *int) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:       "Seeded Product " + uuid.NewString()[:8],
		SKU:        "SKU-" + uuid.NewString()[:8],
		PriceCents: priceCents,
		Currency:   enums.CurrencyKRW,
		IsActive:   true,
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	item := &models.InventoryItem{ProductID: product.ID, InStock: inStock, LowStockAt: lowStockAt}
	if err := conn.Create(item).Error; err != nil {
		t.Fatalf("seed inventory: %v", err)
	}
	return product
}

func seedCart(t *testing.T, conn *gorm.DB, lines ...models.CartItem) *models.Cart {
	t.Helper()
	token := uuid.NewString()
	record := &models.Cart{AnonToken: &token}
	if err := conn.Create(record).Error; err != nil {
		t.Fatalf("seed cart: %v", err)
	}
	for i := range lines {
		lines[i].CartID = record.ID
		if err := conn.Create(&lines[i]).Error; err != nil {
			t.Fatalf("seed cart item: %v", err)
		}
	}
	return record
}

func testAddress() *types.Address {
	return &types.Address{
		RecipientName: "Kim Minji",
		Line1:         "12 Teheran-ro",
		City:          "Seoul",
		PostalCode:    "06164",
		Country:       "kr",
	}
}

func stockOf(t *testing.T, conn *gorm.DB, productID uuid.UUID) int {
	t.Helper()
	var item models.InventoryItem
	if err := conn.First(&item, "product_id = ?", productID).Error; err != nil {
		t.Fatalf("load inventory: %v", err)
	}
	return item.InStock
}
