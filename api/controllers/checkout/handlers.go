package checkout

import (
	"errors"
	"net/http"

	"github.com/parkyoungho/marushop-backend/api/middleware"
	"github.com/parkyoungho/marushop-backend/api/responses"
	"github.com/parkyoungho/marushop-backend/api/validators"
	cartsvc "github.com/parkyoungho/marushop-backend/internal/cart"
	checkoutsvc "github.com/parkyoungho/marushop-backend/internal/checkout"
	"github.com/parkyoungho/marushop-backend/pkg/enums"
	pkgerrors "github.com/parkyoungho/marushop-backend/pkg/errors"
	"github.com/parkyoungho/marushop-backend/pkg/logger"
	"github.com/parkyoungho/marushop-backend/pkg/types"
)

type completeRequest struct {
	Provider          string         `json:"provider" validate:"required"`
	ProviderReference string         `json:"provider_reference" validate:"required"`
	BuyerEmail        string         `json:"buyer_email" validate:"required,email"`
	BuyerName         string         `json:"buyer_name"`
	Address           *types.Address `json:"address"`
}

type completeResponse struct {
	OrderID  string `json:"order_id"`
	Replayed bool   `json:"replayed"`
}

// Complete is the storefront's synchronous confirmation path: the browser
// returns from the provider and posts the payment reference. The webhook path
// lands on the same finalizer, so whichever arrives second becomes a replay.
func Complete(svc checkoutsvc.Service, carts cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || carts == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload completeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		provider := enums.PaymentProvider(payload.Provider)
		if !provider.Valid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment provider"))
			return
		}

		identity := middleware.IdentityFromContext(r.Context())
		record, err := carts.GetOrCreate(r.Context(), identity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Finalize(r.Context(), checkoutsvc.FinalizeInput{
			CartID:            record.ID,
			BuyerEmail:        payload.BuyerEmail,
			BuyerName:         payload.BuyerName,
			Address:           payload.Address,
			Provider:          provider,
			ProviderReference: payload.ProviderReference,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, MapFinalizeError(err))
			return
		}

		status := http.StatusCreated
		if result.Replayed {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, completeResponse{
			OrderID:  result.OrderID.String(),
			Replayed: result.Replayed,
		})
	}
}

// MapFinalizeError translates finalizer errors into API error codes. Shared
// with the webhook controllers.
func MapFinalizeError(err error) error {
	var insufficient *checkoutsvc.InsufficientStockError
	if errors.As(err, &insufficient) {
		return pkgerrors.New(pkgerrors.CodeStockExceeded, "insufficient stock for "+insufficient.ProductName).
			WithDetails(map[string]any{
				"product_id":   insufficient.ProductID,
				"product_name": insufficient.ProductName,
				"available":    insufficient.Available,
			})
	}
	return err
}
