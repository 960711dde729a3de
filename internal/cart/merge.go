package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parkyoungho/marushop-backend/pkg/db/models"
	pkgerrors "github.com/parkyoungho/marushop-backend/pkg/errors"
)

// MergeOnLogin folds the anonymous cart into the user's cart. It runs as one
// transaction keyed on the anonymous cart still existing: once the merge
// deletes that cart, a retried login event finds nothing to do, which is what
// makes the operation idempotent. Both cart rows are locked for the duration
// so a concurrent add lands either before or after the merge, never inside it.
func (s *service) MergeOnLogin(ctx context.Context, anonToken string, userID uuid.UUID) (*models.Cart, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	var resultID uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		anonCart, err := txRepo.FindByAnonToken(ctx, anonToken, true)
		if err != nil {
			return err
		}
		if anonCart != nil && anonCart.UserID != nil {
			// Already adopted by an earlier merge; treat as absent.
			if *anonCart.UserID != userID {
				anonCart = nil
			} else {
				resultID = anonCart.ID
				return nil
			}
		}

		userCart, err := txRepo.FindLatestByUser(ctx, userID, true)
		if err != nil {
			return err
		}

		// No anonymous cart: just make sure the user owns one.
		if anonCart == nil {
			if userCart != nil {
				resultID = userCart.ID
				return nil
			}
			created := &models.Cart{UserID: &userID}
			if err := txRepo.Create(ctx, created); err != nil {
				return err
			}
			resultID = created.ID
			return nil
		}

		// Empty anonymous cart: adopt it when the user has nothing, otherwise
		// drop it and keep the user's existing cart.
		if len(anonCart.Items) == 0 {
			if userCart == nil {
				if err := txRepo.AssignUser(ctx, anonCart.ID, userID); err != nil {
					return err
				}
				resultID = anonCart.ID
				return nil
			}
			if err := txRepo.Delete(ctx, anonCart.ID); err != nil {
				return err
			}
			resultID = userCart.ID
			return nil
		}

		// Anonymous cart has items and the user has no cart: adopt wholesale.
		if userCart == nil {
			if err := txRepo.AssignUser(ctx, anonCart.ID, userID); err != nil {
				return err
			}
			resultID = anonCart.ID
			return nil
		}

		// Both carts carry items: sum colliding lines, reassign the rest.
		for _, anonItem := range anonCart.Items {
			var match *models.CartItem
			for i := range userCart.Items {
				if userCart.Items[i].SameLine(anonItem.ProductID, anonItem.VariantID) {
					match = &userCart.Items[i]
					break
				}
			}
			if match != nil {
				if err := txRepo.UpdateItemQty(ctx, match.ID, match.Qty+anonItem.Qty); err != nil {
					return err
				}
				if err := txRepo.DeleteItem(ctx, anonItem.ID); err != nil {
					return err
				}
			} else {
				if err := txRepo.ReassignItem(ctx, anonItem.ID, userCart.ID); err != nil {
					return err
				}
			}
		}

		if err := txRepo.Delete(ctx, anonCart.ID); err != nil {
			return err
		}
		if err := txRepo.Touch(ctx, userCart.ID); err != nil {
			return err
		}
		resultID = userCart.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.repo.FindByID(ctx, resultID)
}
