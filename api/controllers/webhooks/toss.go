package webhooks

import (
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

// tossEvent is the gateway's normalized Toss Payments envelope. PaymentKey is
// the provider reference; EventID dedupes redeliveries.
type tossEvent struct {
	EventID       string         `json:"event_id" validate:"required"`
	Status        string         `json:"status" validate:"required"`
	PaymentKey    string         `json:"payment_key"`
	CartID        uuid.UUID      `json:"cart_id"`
	CustomerEmail string         `json:"customer_email"`
	CustomerName  string         `json:"customer_name"`
	Address       *types.Address `json:"address,omitempty"`
}

const tossStatusDone = "DONE"

// TossWebhook finalizes orders from Toss payment confirmations.
func TossWebhook(svc finalizer, guard idempotencyGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil || guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		var event tossEvent
		if err := validators.DecodeJSONBody(r, &event); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if event.Status != tossStatusDone {
			responses.WriteSuccess(w, nil)
			return
		}
		if event.PaymentKey == "" || event.CartID == uuid.Nil || event.CustomerEmail == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "incomplete payment event"))
			return
		}

		alreadySeen, err := guard.CheckAndMark(ctx, event.EventID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadySeen {
			responses.WriteSuccess(w, nil)
			return
		}

		result, err := svc.Finalize(ctx, checkoutsvc.FinalizeInput{
			CartID:            event.CartID,
			BuyerEmail:        event.CustomerEmail,
			BuyerName:         event.CustomerName,
			Address:           event.Address,
			Provider:          enums.PaymentProviderToss,
			ProviderReference: event.PaymentKey,
		})
		if err != nil {
			_ = guard.Delete(ctx, event.EventID)
			responses.WriteError(ctx, logg, w, checkoutcontrollers.MapFinalizeError(err))
			return
		}

		if logg != nil {
			logg.Info(logg.WithOrderID(ctx, result.OrderID.String()), "toss webhook finalized order")
		}
		responses.WriteSuccess(w, map[string]any{
			"order_id": result.OrderID.String(),
			"replayed": result.Replayed,
		})
	}
}
