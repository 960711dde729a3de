package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parkyoungho/marushop-backend/pkg/db/models"
)

// ErrNotFound is returned when a product or variant does not exist or the
// product is inactive.
var ErrNotFound = errors.New("catalog: not found")

// Listing is the price-bearing view of a product the cart layer consumes.
// PriceCents reflects the variant override when a variant is addressed.
type Listing struct {
	Product    *models.Product
	Variant    *models.ProductVariant
	PriceCents int
}

// Repository exposes read-only catalog lookups. Catalog writes happen in an
// external admin surface.
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

// FindProduct loads an active product by id.
func (r *Repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, ErrNotFound
	}
	return &product, nil
}

// ListActive returns active products, newest first.
func (r *Repository) ListActive(ctx context.Context, limit int) ([]models.Product, error) {
	query := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var list []models.Product
	if err := query.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// ListVariants returns the variants of one product.
func (r *Repository) ListVariants(ctx context.Context, productID uuid.UUID) ([]models.ProductVariant, error) {
	var list []models.ProductVariant
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// FindProductAny loads a product by id regardless of active state. Checkout
// snapshots use this: a line added before the product went inactive must still
// finalize.
func (r *Repository) FindProductAny(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindVariant loads a variant scoped to its product.
func (r *Repository) FindVariant(ctx context.Context, productID, variantID uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.db.WithContext(ctx).
		First(&variant, "id = ? AND product_id = ?", variantID, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

// Lookup resolves the product (and optional variant) and the effective price
// at this moment. The caller snapshots the price; it is never re-derived.
func (r *Repository) Lookup(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*Listing, error) {
	product, err := r.FindProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	listing := &Listing{Product: product, PriceCents: product.PriceCents}
	if variantID == nil {
		return listing, nil
	}

	var variant models.ProductVariant
	err = r.db.WithContext(ctx).
		First(&variant, "id = ? AND product_id = ?", *variantID, productID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	listing.Variant = &variant
	listing.PriceCents = variant.PriceCents
	return listing, nil
}
