package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parkyoungho/marushop-backend/pkg/db"
	"github.com/parkyoungho/marushop-backend/pkg/db/models"
)

// Repository persists carts and their line items.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new cart row.
func (r *Repository) Create(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).Create(cart).Error
}

// FindByID loads a cart with its items.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&cart, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindByAnonToken loads the cart addressed by an anonymous token, or nil when
// the token has no cart yet.
func (r *Repository) FindByAnonToken(ctx context.Context, token string, forUpdate bool) (*models.Cart, error) {
	if token == "" {
		return nil, nil
	}
	query := r.db.WithContext(ctx).Preload("Items")
	if forUpdate {
		query = db.ForUpdate(query)
	}
	var cart models.Cart
	err := query.First(&cart, "anon_token = ?", token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// FindLatestByUser returns the user's most-recently-updated cart, or nil.
// "Latest updated wins" is how the at-most-one-active-cart invariant is read.
func (r *Repository) FindLatestByUser(ctx context.Context, userID uuid.UUID, forUpdate bool) (*models.Cart, error) {
	query := r.db.WithContext(ctx).Preload("Items").Order("updated_at DESC")
	if forUpdate {
		query = db.ForUpdate(query)
	}
	var cart models.Cart
	err := query.First(&cart, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// AssignUser adopts a cart for the given user.
func (r *Repository) AssignUser(ctx context.Context, cartID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		UpdateColumn("user_id", userID).Error
}

// Touch bumps the cart's updated_at so it stays the user's active cart.
func (r *Repository) Touch(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		UpdateColumn("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
}

// Delete removes a cart row. Items follow via the cascade constraint; the
// explicit item delete keeps SQLite-backed tests honest about the invariant.
func (r *Repository) Delete(ctx context.Context, cartID uuid.UUID) error {
	if err := r.DeleteItemsByCart(ctx, cartID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&models.Cart{}, "id = ?", cartID).Error
}

// FindItem loads a single line item.
func (r *Repository) FindItem(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", itemID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindLine returns the cart's line for (product, variant), or nil.
func (r *Repository) FindLine(ctx context.Context, cartID, productID uuid.UUID, variantID *uuid.UUID) (*models.CartItem, error) {
	query := r.db.WithContext(ctx).Where("cart_id = ? AND product_id = ?", cartID, productID)
	if variantID == nil {
		query = query.Where("variant_id IS NULL")
	} else {
		query = query.Where("variant_id = ?", *variantID)
	}
	var item models.CartItem
	err := query.First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem inserts a new line.
func (r *Repository) CreateItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// UpdateItemQty sets the absolute quantity on a line.
func (r *Repository) UpdateItemQty(ctx context.Context, itemID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		UpdateColumn("qty", qty).Error
}

// ReassignItem moves a line to another cart. Used by the login merge.
func (r *Repository) ReassignItem(ctx context.Context, itemID, toCartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		UpdateColumn("cart_id", toCartID).Error
}

// DeleteItem removes a single line.
func (r *Repository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.CartItem{}, "id = ?", itemID).Error
}

// DeleteItemsByCart clears every line from the cart, leaving the cart row in
// place. Order finalization relies on this exact shape: the source cart always
// ends with zero items but keeps its identity.
func (r *Repository) DeleteItemsByCart(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.CartItem{}, "cart_id = ?", cartID).Error
}
