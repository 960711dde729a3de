package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/parkyoungho/marushop-backend/internal/cart"
	"github.com/parkyoungho/marushop-backend/internal/catalog"
	"github.com/parkyoungho/marushop-backend/internal/inventory"
	"github.com/parkyoungho/marushop-backend/internal/orders"
	"github.com/parkyoungho/marushop-backend/internal/payments"
	"github.com/parkyoungho/marushop-backend/internal/users"
	"github.com/parkyoungho/marushop-backend/pkg/config"
	"github.com/parkyoungho/marushop-backend/pkg/db"
	"github.com/parkyoungho/marushop-backend/pkg/db/models"
	"github.com/parkyoungho/marushop-backend/pkg/enums"
	pkgerrors "github.com/parkyoungho/marushop-backend/pkg/errors"
	"github.com/parkyoungho/marushop-backend/pkg/logger"
	"github.com/parkyoungho/marushop-backend/pkg/metrics"
	"github.com/parkyoungho/marushop-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Event describes a finalized order for post-commit side effects. Order carries
// its items and shipping record; LowStock lists products that crossed their
// threshold during this finalization.
type Event struct {
	Order    *models.Order
	User     *models.User
	CartID   uuid.UUID
	LowStock []inventory.LowStockAlert
}

type effectDispatcher interface {
	OrderFinalized(ctx context.Context, evt Event)
}

// FinalizeInput is the payment confirmation, whether it arrived from the
// storefront's complete call or from a provider webhook. Both paths funnel into
// the same (provider, reference) identity.
type FinalizeInput struct {
	CartID            uuid.UUID
	BuyerEmail        string
	BuyerName         string
	Address           *types.Address
	Provider          enums.PaymentProvider
	ProviderReference string
}

// FinalizeResult reports the order linked to the payment reference. Replayed is
// true when a previous finalization already created it.
type FinalizeResult struct {
	OrderID  uuid.UUID
	Replayed bool
}

// Service turns confirmed payments into orders exactly once.
type Service interface {
	Finalize(ctx context.Context, input FinalizeInput) (*FinalizeResult, error)
}

type service struct {
	tx        txRunner
	cartRepo  *cart.Repository
	orderRepo *orders.Repository
	userRepo  *users.Repository
	payLedger *payments.Ledger
	invLedger *inventory.Ledger
	catalog   *catalog.Repository
	effects   effectDispatcher
	metrics   *metrics.CheckoutMetrics
	logg      *logger.Logger
	currency  enums.Currency
}

// errRaceLost signals that another finalization inserted the payment row first.
var errRaceLost = errors.New("payment reference already recorded")

// NewService builds the finalizer. Side effects, metrics and logging are
// optional; everything else is required.
func NewService(
	tx txRunner,
	cartRepo *cart.Repository,
	orderRepo *orders.Repository,
	userRepo *users.Repository,
	payLedger *payments.Ledger,
	invLedger *inventory.Ledger,
	cat *catalog.Repository,
	effects effectDispatcher,
	met *metrics.CheckoutMetrics,
	logg *logger.Logger,
	cfg config.CheckoutConfig,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if payLedger == nil {
		return nil, fmt.Errorf("payment ledger required")
	}
	if invLedger == nil {
		return nil, fmt.Errorf("inventory ledger required")
	}
	if cat == nil {
		return nil, fmt.Errorf("catalog repository required")
	}

	currency := enums.Currency(cfg.DefaultCurrency)
	if currency == "" {
		currency = enums.CurrencyKRW
	}

	return &service{
		tx:        tx,
		cartRepo:  cartRepo,
		orderRepo: orderRepo,
		userRepo:  userRepo,
		payLedger: payLedger,
		invLedger: invLedger,
		catalog:   cat,
		effects:   effects,
		metrics:   met,
		logg:      logg,
		currency:  currency,
	}, nil
}

// Finalize creates the order for a confirmed payment. The operation is
// idempotent on (provider, reference): a replayed confirmation returns the
// order created the first time and mutates nothing. The pre-check handles the
// common replay cheaply; the unique constraint on payments handles the
// concurrent race, with the loser rolling back and adopting the winner's order.
func (s *service) Finalize(ctx context.Context, input FinalizeInput) (*FinalizeResult, error) {
	if err := s.validate(input); err != nil {
		s.countFinalize(metrics.FinalizeResultFailed, input.Provider)
		return nil, err
	}

	if existing, err := s.payLedger.FindOrderFor(ctx, input.Provider, input.ProviderReference); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check payment reference")
	} else if existing != nil {
		s.countFinalize(metrics.FinalizeResultReplayed, input.Provider)
		return &FinalizeResult{OrderID: *existing, Replayed: true}, nil
	}

	var evt Event
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.finalizeInTx(ctx, tx, input, &evt)
	})
	if errors.Is(err, errRaceLost) {
		winner, lookupErr := s.payLedger.FindOrderFor(ctx, input.Provider, input.ProviderReference)
		if lookupErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, lookupErr, "resolve winning finalization")
		}
		if winner == nil {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment reference contested but unresolved")
		}
		s.countFinalize(metrics.FinalizeResultReplayed, input.Provider)
		return &FinalizeResult{OrderID: *winner, Replayed: true}, nil
	}
	if err != nil {
		s.countFinalize(metrics.FinalizeResultFailed, input.Provider)
		return nil, err
	}

	s.countFinalize(metrics.FinalizeResultCreated, input.Provider)
	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, evt.Order.ID.String()), "order finalized")
	}

	// Side effects run after commit; their failures never touch the order.
	if s.effects != nil {
		s.effects.OrderFinalized(ctx, evt)
	}

	return &FinalizeResult{OrderID: evt.Order.ID}, nil
}

func (s *service) validate(input FinalizeInput) error {
	if input.CartID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart id required")
	}
	if input.BuyerEmail == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer email required")
	}
	if !input.Provider.Valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment provider")
	}
	if input.ProviderReference == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "provider reference required")
	}
	return nil
}

func (s *service) finalizeInTx(ctx context.Context, tx *gorm.DB, input FinalizeInput, evt *Event) error {
	txCart := s.cartRepo.WithTx(tx)
	txOrders := s.orderRepo.WithTx(tx)
	txUsers := s.userRepo.WithTx(tx)
	txPay := s.payLedger.WithTx(tx)
	txInv := s.invLedger.WithTx(tx)
	txCatalog := s.catalog.WithTx(tx)

	sourceCart, err := txCart.FindByID(ctx, input.CartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return err
	}
	if len(sourceCart.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart contains no items")
	}

	buyer, err := txUsers.FindOrCreateByEmail(ctx, input.BuyerEmail, input.BuyerName)
	if err != nil {
		return err
	}

	totals := cart.ComputeTotals(sourceCart.Items)
	order := &models.Order{
		UserID:        buyer.ID,
		Status:        enums.OrderStatusPaid,
		SubtotalCents: totals.SubtotalCents,
		TotalCents:    totals.TotalCents,
		Currency:      s.currency,
	}
	if err := txOrders.Create(ctx, order); err != nil {
		return err
	}

	items := make([]models.OrderItem, 0, len(sourceCart.Items))
	for _, line := range sourceCart.Items {
		product, err := txCatalog.FindProductAny(ctx, line.ProductID)
		if err != nil {
			return err
		}

		name := product.Name
		if line.VariantID != nil {
			variant, err := txCatalog.FindVariant(ctx, line.ProductID, *line.VariantID)
			if err != nil {
				return err
			}
			name = fmt.Sprintf("%s (%s)", product.Name, variant.Name)
		}

		productID := line.ProductID
		items = append(items, models.OrderItem{
			OrderID:    order.ID,
			ProductID:  &productID,
			Name:       name,
			SKU:        product.SKU,
			Qty:        line.Qty,
			PriceCents: line.PriceCents,
		})

		if err := txInv.ReserveAndDecrement(ctx, line.ProductID, line.Qty); err != nil {
			var exceeded *inventory.StockExceededError
			if errors.As(err, &exceeded) {
				return &InsufficientStockError{
					ProductID:   exceeded.ProductID,
					ProductName: product.Name,
					Available:   exceeded.Available,
				}
			}
			return err
		}

		alert, err := txInv.CheckLowStock(ctx, line.ProductID)
		if err != nil {
			return err
		}
		if alert != nil {
			evt.LowStock = append(evt.LowStock, *alert)
		}
	}
	if err := txOrders.CreateItems(ctx, items); err != nil {
		return err
	}

	if input.Address != nil {
		address := *input.Address
		address.Normalize()
		carrier, trackingNo := GenerateTracking(time.Now())
		shipping := &models.ShippingRecord{
			OrderID:       order.ID,
			RecipientName: address.RecipientName,
			Line1:         address.Line1,
			Line2:         address.Line2,
			City:          address.City,
			PostalCode:    address.PostalCode,
			Country:       address.Country,
			Carrier:       carrier,
			TrackingNo:    trackingNo,
		}
		if err := txOrders.CreateShipping(ctx, shipping); err != nil {
			return err
		}
		order.Shipping = shipping
	}

	payment := &models.Payment{
		OrderID:           order.ID,
		Provider:          input.Provider,
		ProviderReference: input.ProviderReference,
		AmountCents:       totals.TotalCents,
		Currency:          s.currency,
		Status:            enums.PaymentStatusSucceeded,
	}
	if err := txPay.Record(ctx, payment); err != nil {
		if db.IsUniqueViolation(err, models.UniquePaymentProviderReference) {
			return errRaceLost
		}
		return err
	}
	order.Payment = payment

	// The cart row stays; only its lines go. A retried storefront call sees an
	// empty cart with the same identity.
	if err := txCart.DeleteItemsByCart(ctx, sourceCart.ID); err != nil {
		return err
	}

	order.Items = items
	evt.Order = order
	evt.User = buyer
	evt.CartID = sourceCart.ID
	return nil
}

func (s *service) countFinalize(result string, provider enums.PaymentProvider) {
	if s.metrics != nil {
		s.metrics.IncFinalize(result, provider.String())
	}
}
