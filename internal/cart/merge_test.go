package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parkyoungho/marushop-backend/pkg/db/models"
)

func TestMergeSumsCollidingLines(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)

	productA := seedProduct(t, conn, 1000, 50)
	productB := seedProduct(t, conn, 2000, 50)
	productC := seedProduct(t, conn, 3000, 50)

	token := NewAnonToken()
	anon := Identity{AnonToken: token}
	mustAdd(t, svc, anon, productA.ID, 2)
	mustAdd(t, svc, anon, productB.ID, 1)

	userID := uuid.New()
	user := Identity{AnonToken: NewAnonToken(), UserID: &userID}
	mustAdd(t, svc, user, productA.ID, 1)
	mustAdd(t, svc, user, productC.ID, 3)

	merged, err := svc.MergeOnLogin(context.Background(), token, userID)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}

	if len(merged.Items) != 3 {
		t.Fatalf("expected 3 lines after merge, got %d", len(merged.Items))
	}
	want := map[uuid.UUID]int{productA.ID: 3, productB.ID: 1, productC.ID: 3}
	for productID, qty := range want {
		line := lineFor(merged, productID)
		if line == nil || line.Qty != qty {
			t.Fatalf("expected qty %d for product %s, got %+v", qty, productID, line)
		}
	}

	// The anonymous cart is gone.
	var count int64
	if err := conn.Model(&models.Cart{}).Where("anon_token = ?", token).Count(&count).Error; err != nil {
		t.Fatalf("count anon carts: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected anonymous cart deleted, found %d", count)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	product := seedProduct(t, conn, 1000, 50)

	token := NewAnonToken()
	mustAdd(t, svc, Identity{AnonToken: token}, product.ID, 2)

	userID := uuid.New()
	first, err := svc.MergeOnLogin(context.Background(), token, userID)
	if err != nil {
		t.Fatalf("first merge: %v", err)
	}
	second, err := svc.MergeOnLogin(context.Background(), token, userID)
	if err != nil {
		t.Fatalf("replayed merge: %v", err)
	}

	if line := lineFor(second, product.ID); line == nil || line.Qty != 2 {
		t.Fatalf("replayed merge changed quantities: %+v", second.Items)
	}
	if first.ID != second.ID {
		t.Fatalf("replayed merge resolved a different cart: %s vs %s", first.ID, second.ID)
	}
}

func TestMergeAdoptsAnonWhenUserHasNoCart(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	product := seedProduct(t, conn, 1000, 50)

	token := NewAnonToken()
	anonCart := mustAdd(t, svc, Identity{AnonToken: token}, product.ID, 2)

	userID := uuid.New()
	merged, err := svc.MergeOnLogin(context.Background(), token, userID)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged.ID != anonCart.ID {
		t.Fatalf("expected wholesale adoption, got cart %s", merged.ID)
	}
	if merged.UserID == nil || *merged.UserID != userID {
		t.Fatalf("expected cart owned by user, got %+v", merged.UserID)
	}
}

func TestMergeWithoutAnonCartEnsuresUserCart(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)

	userID := uuid.New()
	merged, err := svc.MergeOnLogin(context.Background(), "no-such-token", userID)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if merged.UserID == nil || *merged.UserID != userID {
		t.Fatalf("expected a cart for the user, got %+v", merged)
	}
	if len(merged.Items) != 0 {
		t.Fatalf("expected empty cart, got %d items", len(merged.Items))
	}
}

func TestMergeIgnoresForeignAnonCart(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	product := seedProduct(t, conn, 1000, 50)

	token := NewAnonToken()
	mustAdd(t, svc, Identity{AnonToken: token}, product.ID, 2)

	// First user adopts the token's cart.
	firstUser := uuid.New()
	if _, err := svc.MergeOnLogin(context.Background(), token, firstUser); err != nil {
		t.Fatalf("first user merge: %v", err)
	}

	// A second user presenting the same token must not steal it.
	secondUser := uuid.New()
	merged, err := svc.MergeOnLogin(context.Background(), token, secondUser)
	if err != nil {
		t.Fatalf("second user merge: %v", err)
	}
	if merged.UserID == nil || *merged.UserID != secondUser {
		t.Fatalf("expected fresh cart for second user, got %+v", merged.UserID)
	}
	if len(merged.Items) != 0 {
		t.Fatalf("second user inherited items: %+v", merged.Items)
	}

	var stolen models.Cart
	err = conn.Where("user_id = ?", firstUser).First(&stolen).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatal("first user's cart disappeared")
	}
	if err != nil {
		t.Fatalf("load first user cart: %v", err)
	}
}
