package payments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parkyoungho/marushop-backend/pkg/db/models"
	"github.com/parkyoungho/marushop-backend/pkg/enums"
)

// Ledger records payment confirmations keyed by (provider, providerReference).
// The unique constraint on that pair enforces at-most-one order per payment.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// WithTx returns a ledger bound to the provided transaction.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	if tx == nil {
		return l
	}
	return &Ledger{db: tx}
}

// FindOrderFor is the idempotency gate: it returns the order already linked to
// the payment reference, or nil when finalization has not happened yet.
func (l *Ledger) FindOrderFor(ctx context.Context, provider enums.PaymentProvider, providerReference string) (*uuid.UUID, error) {
	var payment models.Payment
	err := l.db.WithContext(ctx).
		Where("provider = ? AND provider_reference = ?", provider, providerReference).
		First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	orderID := payment.OrderID
	return &orderID, nil
}

// Record inserts the payment row. Insert-only: callers must treat a unique
// violation as "another finalization won the race" and re-resolve through
// FindOrderFor rather than surfacing an error.
func (l *Ledger) Record(ctx context.Context, payment *models.Payment) error {
	return l.db.WithContext(ctx).Create(payment).Error
}
