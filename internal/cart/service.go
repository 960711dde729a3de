package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parkyoungho/marushop-backend/internal/catalog"
	"github.com/parkyoungho/marushop-backend/internal/inventory"
	"github.com/parkyoungho/marushop-backend/pkg/db/models"
	pkgerrors "github.com/parkyoungho/marushop-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type catalogLookup interface {
	Lookup(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*catalog.Listing, error)
}

// Service exposes cart mutation and read operations. Every operation resolves
// the cart from the caller-supplied Identity; the service never touches
// transport-level state.
type Service interface {
	GetOrCreate(ctx context.Context, identity Identity) (*models.Cart, error)
	Get(ctx context.Context, identity Identity) (*models.Cart, Totals, error)
	AddItem(ctx context.Context, identity Identity, input AddItemInput) (*models.Cart, error)
	UpdateQty(ctx context.Context, identity Identity, itemID uuid.UUID, qty int) (*models.Cart, error)
	RemoveItem(ctx context.Context, identity Identity, itemID uuid.UUID) (*models.Cart, error)
	MergeOnLogin(ctx context.Context, anonToken string, userID uuid.UUID) (*models.Cart, error)
}

type service struct {
	repo    *Repository
	tx      txRunner
	catalog catalogLookup
	ledger  *inventory.Ledger
}

// NewService builds the cart service backed by the provided stack.
func NewService(repo *Repository, tx txRunner, cat catalogLookup, ledger *inventory.Ledger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if cat == nil {
		return nil, fmt.Errorf("catalog lookup required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	return &service{repo: repo, tx: tx, catalog: cat, ledger: ledger}, nil
}

// AddItemInput captures a single add-to-cart request.
type AddItemInput struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Qty       int
}

// GetOrCreate resolves the identity to exactly one cart, creating it lazily.
// Resolution order: an unowned anonymous cart is adopted when a user id is
// present; otherwise the user's latest cart wins; otherwise the token's cart.
func (s *service) GetOrCreate(ctx context.Context, identity Identity) (*models.Cart, error) {
	if !identity.Valid() {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, ErrNoIdentity, "cart identity required")
	}

	if identity.UserID != nil {
		if identity.AnonToken != "" {
			anonCart, err := s.repo.FindByAnonToken(ctx, identity.AnonToken, false)
			if err != nil {
				return nil, err
			}
			if anonCart != nil {
				if anonCart.UserID == nil {
					if err := s.repo.AssignUser(ctx, anonCart.ID, *identity.UserID); err != nil {
						return nil, err
					}
					anonCart.UserID = identity.UserID
					return anonCart, nil
				}
				if *anonCart.UserID == *identity.UserID {
					return anonCart, nil
				}
				// Token belongs to someone else's cart; fall through to the
				// user's own cart.
			}
		}

		userCart, err := s.repo.FindLatestByUser(ctx, *identity.UserID, false)
		if err != nil {
			return nil, err
		}
		if userCart != nil {
			return userCart, nil
		}

		created := &models.Cart{UserID: identity.UserID}
		if err := s.repo.Create(ctx, created); err != nil {
			return nil, err
		}
		return created, nil
	}

	anonCart, err := s.repo.FindByAnonToken(ctx, identity.AnonToken, false)
	if err != nil {
		return nil, err
	}
	if anonCart != nil {
		return anonCart, nil
	}

	token := identity.AnonToken
	created := &models.Cart{AnonToken: &token}
	if err := s.repo.Create(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}

// Get returns the resolved cart together with its computed totals.
func (s *service) Get(ctx context.Context, identity Identity) (*models.Cart, Totals, error) {
	cart, err := s.GetOrCreate(ctx, identity)
	if err != nil {
		return nil, Totals{}, err
	}
	return cart, ComputeTotals(cart.Items), nil
}

// AddItem appends qty units of (product, variant) to the cart. When a line for
// the same pair exists, the combined quantity is checked against availability
// so repeated small adds cannot creep past stock. The unit price is snapshot
// from the catalog at this moment and never revised afterwards.
func (s *service) AddItem(ctx context.Context, identity Identity, input AddItemInput) (*models.Cart, error) {
	if input.Qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "qty must be positive")
	}

	listing, err := s.catalog.Lookup(ctx, input.ProductID, input.VariantID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	resolved, err := s.GetOrCreate(ctx, identity)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		txLedger := s.ledger.WithTx(tx)

		available, err := txLedger.LockedAvailable(ctx, input.ProductID)
		if err != nil {
			return err
		}

		existing, err := txRepo.FindLine(ctx, resolved.ID, input.ProductID, input.VariantID)
		if err != nil {
			return err
		}

		combined := input.Qty
		if existing != nil {
			combined += existing.Qty
		}
		if combined > available {
			return &inventory.StockExceededError{ProductID: input.ProductID, Available: available}
		}

		if existing != nil {
			// Quantity grows; the original price snapshot stays.
			if err := txRepo.UpdateItemQty(ctx, existing.ID, combined); err != nil {
				return err
			}
		} else {
			item := &models.CartItem{
				CartID:     resolved.ID,
				ProductID:  input.ProductID,
				VariantID:  input.VariantID,
				Qty:        input.Qty,
				PriceCents: listing.PriceCents,
			}
			if err := txRepo.CreateItem(ctx, item); err != nil {
				return err
			}
		}

		return txRepo.Touch(ctx, resolved.ID)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.FindByID(ctx, resolved.ID)
}

// UpdateQty sets the absolute quantity of a line; qty <= 0 deletes it. The
// availability recheck is against the new absolute quantity, not the delta.
func (s *service) UpdateQty(ctx context.Context, identity Identity, itemID uuid.UUID, qty int) (*models.Cart, error) {
	if qty <= 0 {
		return s.RemoveItem(ctx, identity, itemID)
	}

	resolved, err := s.GetOrCreate(ctx, identity)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		txLedger := s.ledger.WithTx(tx)

		item, err := s.ownedItem(ctx, txRepo, resolved.ID, itemID)
		if err != nil {
			return err
		}

		available, err := txLedger.LockedAvailable(ctx, item.ProductID)
		if err != nil {
			return err
		}
		if qty > available {
			return &inventory.StockExceededError{ProductID: item.ProductID, Available: available}
		}

		if err := txRepo.UpdateItemQty(ctx, item.ID, qty); err != nil {
			return err
		}
		return txRepo.Touch(ctx, resolved.ID)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.FindByID(ctx, resolved.ID)
}

// RemoveItem deletes a line unconditionally.
func (s *service) RemoveItem(ctx context.Context, identity Identity, itemID uuid.UUID) (*models.Cart, error) {
	resolved, err := s.GetOrCreate(ctx, identity)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		item, err := s.ownedItem(ctx, txRepo, resolved.ID, itemID)
		if err != nil {
			return err
		}
		if err := txRepo.DeleteItem(ctx, item.ID); err != nil {
			return err
		}
		return txRepo.Touch(ctx, resolved.ID)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.FindByID(ctx, resolved.ID)
}

func (s *service) ownedItem(ctx context.Context, repo *Repository, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	item, err := repo.FindItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, err
	}
	if item.CartID != cartID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return item, nil
}
