package orders

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/parkyoungho/marushop-backend/api/middleware"
	"github.com/parkyoungho/marushop-backend/api/responses"
	orderssvc "github.com/parkyoungho/marushop-backend/internal/orders"
	"github.com/parkyoungho/marushop-backend/pkg/db/models"
	pkgerrors "github.com/parkyoungho/marushop-backend/pkg/errors"
	"github.com/parkyoungho/marushop-backend/pkg/logger"
)

type orderResponse struct {
	ID            uuid.UUID           `json:"id"`
	Status        string              `json:"status"`
	SubtotalCents int                 `json:"subtotal_cents"`
	TotalCents    int                 `json:"total_cents"`
	Currency      string              `json:"currency"`
	Items         []orderItemResponse `json:"items"`
	Shipping      *shippingResponse   `json:"shipping,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

type orderItemResponse struct {
	Name       string `json:"name"`
	SKU        string `json:"sku"`
	Qty        int    `json:"qty"`
	PriceCents int    `json:"price_cents"`
}

type shippingResponse struct {
	RecipientName string `json:"recipient_name"`
	City          string `json:"city"`
	Country       string `json:"country"`
	Carrier       string `json:"carrier"`
	TrackingNo    string `json:"tracking_no"`
	Status        string `json:"status"`
}

func newOrderResponse(record *models.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(record.Items))
	for _, item := range record.Items {
		items = append(items, orderItemResponse{
			Name:       item.Name,
			SKU:        item.SKU,
			Qty:        item.Qty,
			PriceCents: item.PriceCents,
		})
	}
	resp := orderResponse{
		ID:            record.ID,
		Status:        record.Status.String(),
		SubtotalCents: record.SubtotalCents,
		TotalCents:    record.TotalCents,
		Currency:      record.Currency.String(),
		Items:         items,
		CreatedAt:     record.CreatedAt,
	}
	if record.Shipping != nil {
		resp.Shipping = &shippingResponse{
			RecipientName: record.Shipping.RecipientName,
			City:          record.Shipping.City,
			Country:       record.Shipping.Country,
			Carrier:       record.Shipping.Carrier.String(),
			TrackingNo:    record.Shipping.TrackingNo,
			Status:        record.Shipping.Status,
		}
	}
	return resp
}

// Detail returns a single order. The order id is an unguessable capability, so
// guests who just checked out can read their order; a logged-in user can only
// read their own.
func Detail(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		record, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		identity := middleware.IdentityFromContext(r.Context())
		if identity.UserID != nil && *identity.UserID != record.UserID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
			return
		}

		responses.WriteSuccess(w, newOrderResponse(record))
	}
}

// List returns the authenticated user's orders, newest first.
func List(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		identity := middleware.IdentityFromContext(r.Context())
		if identity.UserID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required"))
			return
		}

		records, err := svc.ListForUser(r.Context(), *identity.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list := make([]orderResponse, 0, len(records))
		for i := range records {
			list = append(list, newOrderResponse(&records[i]))
		}
		responses.WriteSuccess(w, list)
	}
}
