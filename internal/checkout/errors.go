package checkout

import (
	"fmt"

	"github.com/google/uuid"
)

// InsufficientStockError aborts finalization when a cart line can no longer be
// covered by stock. Carries the product name so the failure reads back in
// storefront terms.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: %d available", e.ProductName, e.Available)
}
