package payments

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/parkyoungho/marushop-backend/pkg/db"
	"github.com/parkyoungho/marushop-backend/pkg/db/models"
	"github.com/parkyoungho/marushop-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:payments_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Payment{}); err != nil {
		t.Fatalf("migrate payments: %v", err)
	}
	return conn
}

func TestRecordRejectsDuplicateReference(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	ctx := context.Background()
	ledger := NewLedger(conn)

	reference := "pi_" + uuid.NewString()
	first := &models.Payment{
		OrderID:           uuid.New(),
		Provider:          enums.PaymentProviderStripe,
		ProviderReference: reference,
		AmountCents:       3000,
		Currency:          enums.CurrencyKRW,
		Status:            enums.PaymentStatusSucceeded,
	}
	if err := ledger.Record(ctx, first); err != nil {
		t.Fatalf("record: %v", err)
	}

	duplicate := &models.Payment{
		OrderID:           uuid.New(),
		Provider:          enums.PaymentProviderStripe,
		ProviderReference: reference,
		AmountCents:       3000,
		Currency:          enums.CurrencyKRW,
		Status:            enums.PaymentStatusSucceeded,
	}
	err := ledger.Record(ctx, duplicate)
	if err == nil {
		t.Fatal("expected unique violation for duplicate reference")
	}
	if !db.IsUniqueViolation(err, models.UniquePaymentProviderReference) {
		t.Fatalf("expected unique violation, got %v", err)
	}

	// The same reference under the other provider is a distinct payment.
	other := &models.Payment{
		OrderID:           uuid.New(),
		Provider:          enums.PaymentProviderToss,
		ProviderReference: reference,
		AmountCents:       3000,
		Currency:          enums.CurrencyKRW,
		Status:            enums.PaymentStatusSucceeded,
	}
	if err := ledger.Record(ctx, other); err != nil {
		t.Fatalf("record under other provider: %v", err)
	}
}

func TestFindOrderFor(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	ctx := context.Background()
	ledger := NewLedger(conn)

	orderID := uuid.New()
	reference := "toss_" + uuid.NewString()
	payment := &models.Payment{
		OrderID:           orderID,
		Provider:          enums.PaymentProviderToss,
		ProviderReference: reference,
		AmountCents:       1500,
		Currency:          enums.CurrencyKRW,
		Status:            enums.PaymentStatusSucceeded,
	}
	if err := ledger.Record(ctx, payment); err != nil {
		t.Fatalf("record: %v", err)
	}

	found, err := ledger.FindOrderFor(ctx, enums.PaymentProviderToss, reference)
	if err != nil {
		t.Fatalf("find order: %v", err)
	}
	if found == nil || *found != orderID {
		t.Fatalf("expected order %s, got %v", orderID, found)
	}

	missing, err := ledger.FindOrderFor(ctx, enums.PaymentProviderStripe, reference)
	if err != nil {
		t.Fatalf("find under other provider: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for other provider, got %v", missing)
	}
}
