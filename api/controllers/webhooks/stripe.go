package webhooks

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	checkoutcontrollers "github.com/parkyoungho/marushop-backend/api/controllers/checkout"
	"github.com/parkyoungho/marushop-backend/api/responses"
	"github.com/parkyoungho/marushop-backend/api/validators"
	checkoutsvc "github.com/parkyoungho/marushop-backend/internal/checkout"
	"github.com/parkyoungho/marushop-backend/pkg/enums"
	pkgerrors "github.com/parkyoungho/marushop-backend/pkg/errors"
	"github.com/parkyoungho/marushop-backend/pkg/logger"
	"github.com/parkyoungho/marushop-backend/pkg/types"
)

type finalizer interface {
	Finalize(ctx context.Context, input checkoutsvc.FinalizeInput) (*checkoutsvc.FinalizeResult, error)
}

type idempotencyGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// stripeEvent is the payment gateway's normalized Stripe envelope. Signature
// verification happens at the gateway; this service trusts the forwarded body.
type stripeEvent struct {
	ID   string `json:"id" validate:"required"`
	Type string `json:"type" validate:"required"`
	Data struct {
		PaymentIntentID string         `json:"payment_intent_id"`
		CartID          uuid.UUID      `json:"cart_id"`
		CustomerEmail   string         `json:"customer_email"`
		CustomerName    string         `json:"customer_name"`
		Address         *types.Address `json:"address,omitempty"`
	} `json:"data"`
}

const stripePaymentSucceeded = "payment_intent.succeeded"

// StripeWebhook finalizes orders from Stripe payment confirmations.
func StripeWebhook(svc finalizer, guard idempotencyGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil || guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		var event stripeEvent
		if err := validators.DecodeJSONBody(r, &event); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		// Everything except a succeeded payment is acknowledged and dropped.
		if event.Type != stripePaymentSucceeded {
			responses.WriteSuccess(w, nil)
			return
		}
		if event.Data.PaymentIntentID == "" || event.Data.CartID == uuid.Nil || event.Data.CustomerEmail == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "incomplete payment event"))
			return
		}

		alreadySeen, err := guard.CheckAndMark(ctx, event.ID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadySeen {
			responses.WriteSuccess(w, nil)
			return
		}

		result, err := svc.Finalize(ctx, checkoutsvc.FinalizeInput{
			CartID:            event.Data.CartID,
			BuyerEmail:        event.Data.CustomerEmail,
			BuyerName:         event.Data.CustomerName,
			Address:           event.Data.Address,
			Provider:          enums.PaymentProviderStripe,
			ProviderReference: event.Data.PaymentIntentID,
		})
		if err != nil {
			// Unmark so Stripe's retry gets another attempt.
			_ = guard.Delete(ctx, event.ID)
			responses.WriteError(ctx, logg, w, checkoutcontrollers.MapFinalizeError(err))
			return
		}

		if logg != nil {
			logg.Info(logg.WithOrderID(ctx, result.OrderID.String()), "stripe webhook finalized order")
		}
		responses.WriteSuccess(w, map[string]any{
			"order_id": result.OrderID.String(),
			"replayed": result.Replayed,
		})
	}
}
