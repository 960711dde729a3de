package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/parkyoungho/marushop-backend/internal/inventory"
	pkgerrors "github.com/parkyoungho/marushop-backend/pkg/errors"
)

func TestGetOrCreateAnonymous(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	identity := Identity{AnonToken: NewAnonToken()}

	first, err := svc.GetOrCreate(context.Background(), identity)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	second, err := svc.GetOrCreate(context.Background(), identity)
	if err != nil {
		t.Fatalf("get or create again: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("same token resolved to different carts: %s vs %s", first.ID, second.ID)
	}
}

func TestGetOrCreateAdoptsAnonCart(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	token := NewAnonToken()

	anonCart, err := svc.GetOrCreate(context.Background(), Identity{AnonToken: token})
	if err != nil {
		t.Fatalf("create anon cart: %v", err)
	}

	userID := uuid.New()
	resolved, err := svc.GetOrCreate(context.Background(), Identity{AnonToken: token, UserID: &userID})
	if err != nil {
		t.Fatalf("resolve with user: %v", err)
	}
	if resolved.ID != anonCart.ID {
		t.Fatalf("expected anon cart to be adopted, got %s", resolved.ID)
	}
	if resolved.UserID == nil || *resolved.UserID != userID {
		t.Fatalf("expected cart owned by %s, got %+v", userID, resolved.UserID)
	}
}

func TestGetOrCreateNoIdentity(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)

	_, err := svc.GetOrCreate(context.Background(), Identity{})
	if err == nil {
		t.Fatal("expected error for empty identity")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAddItemSnapshotsPrice(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	product := seedProduct(t, conn, 1000, 10)
	identity := Identity{AnonToken: NewAnonToken()}

	record := mustAdd(t, svc, identity, product.ID, 1)
	if line := lineFor(record, product.ID); line == nil || line.PriceCents != 1000 {
		t.Fatalf("expected snapshot price 1000, got %+v", line)
	}

	// A later catalog price change must not touch the existing line, even when
	// the same line grows.
	if err := conn.Model(product).UpdateColumn("price_cents", 2000).Error; err != nil {
		t.Fatalf("update price: %v", err)
	}

	record = mustAdd(t, svc, identity, product.ID, 1)
	line := lineFor(record, product.ID)
	if line == nil {
		t.Fatal("line missing after second add")
	}
	if line.Qty != 2 {
		t.Fatalf("expected merged qty 2, got %d", line.Qty)
	}
	if line.PriceCents != 1000 {
		t.Fatalf("snapshot price changed to %d", line.PriceCents)
	}

	totals := ComputeTotals(record.Items)
	if totals.SubtotalCents != 2000 || totals.TotalCents != 2000 {
		t.Fatalf("unexpected totals: %+v", totals)
	}
}

func TestAddItemCombinedQtyRejected(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	product := seedProduct(t, conn, 1000, 5)
	identity := Identity{AnonToken: NewAnonToken()}

	mustAdd(t, svc, identity, product.ID, 3)

	_, err := svc.AddItem(context.Background(), identity, AddItemInput{ProductID: product.ID, Qty: 3})
	var exceeded *inventory.StockExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("expected StockExceededError, got %v", err)
	}
	if exceeded.Available != 5 {
		t.Fatalf("expected available 5, got %d", exceeded.Available)
	}

	// The cart keeps its original line untouched.
	record, _, err := svc.Get(context.Background(), identity)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if line := lineFor(record, product.ID); line == nil || line.Qty != 3 {
		t.Fatalf("expected qty 3 preserved, got %+v", line)
	}
}

func TestAddItemUnknownProduct(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)

	_, err := svc.AddItem(context.Background(), Identity{AnonToken: NewAnonToken()}, AddItemInput{ProductID: uuid.New(), Qty: 1})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateQtyZeroRemovesLine(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	product := seedProduct(t, conn, 500, 10)
	identity := Identity{AnonToken: NewAnonToken()}

	record := mustAdd(t, svc, identity, product.ID, 2)
	line := lineFor(record, product.ID)

	record, err := svc.UpdateQty(context.Background(), identity, line.ID, 0)
	if err != nil {
		t.Fatalf("update qty to zero: %v", err)
	}
	if len(record.Items) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(record.Items))
	}
}

func TestUpdateQtyChecksAbsoluteAvailability(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	product := seedProduct(t, conn, 500, 4)
	identity := Identity{AnonToken: NewAnonToken()}

	record := mustAdd(t, svc, identity, product.ID, 2)
	line := lineFor(record, product.ID)

	_, err := svc.UpdateQty(context.Background(), identity, line.ID, 5)
	var exceeded *inventory.StockExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("expected StockExceededError, got %v", err)
	}
	if exceeded.Available != 4 {
		t.Fatalf("expected available 4, got %d", exceeded.Available)
	}

	record, err = svc.UpdateQty(context.Background(), identity, line.ID, 4)
	if err != nil {
		t.Fatalf("update to max available: %v", err)
	}
	if got := lineFor(record, product.ID); got == nil || got.Qty != 4 {
		t.Fatalf("expected qty 4, got %+v", got)
	}
}

func TestRemoveItemNotOwned(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	product := seedProduct(t, conn, 500, 10)

	other := Identity{AnonToken: NewAnonToken()}
	record := mustAdd(t, svc, other, product.ID, 1)
	line := lineFor(record, product.ID)

	_, err := svc.RemoveItem(context.Background(), Identity{AnonToken: NewAnonToken()}, line.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign item, got %v", err)
	}
}
