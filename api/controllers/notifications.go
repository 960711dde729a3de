package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/parkyoungho/marushop-backend/api/middleware"
	"github.com/parkyoungho/marushop-backend/api/responses"
	"github.com/parkyoungho/marushop-backend/internal/notifications"
	"github.com/parkyoungho/marushop-backend/pkg/db/models"
	pkgerrors "github.com/parkyoungho/marushop-backend/pkg/errors"
	"github.com/parkyoungho/marushop-backend/pkg/logger"
)

type notificationResponse struct {
	ID        uuid.UUID  `json:"id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func newNotificationResponse(record models.Notification) notificationResponse {
	return notificationResponse{
		ID:        record.ID,
		Type:      record.Type.String(),
		Title:     record.Title,
		Message:   record.Message,
		ReadAt:    record.ReadAt,
		CreatedAt: record.CreatedAt,
	}
}

// ListNotifications returns the user's notifications. ?unread=true filters to
// unread only.
func ListNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		identity := middleware.IdentityFromContext(r.Context())
		if identity.UserID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required"))
			return
		}

		unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unread"))
		records, err := svc.List(r.Context(), *identity.UserID, unreadOnly, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list := make([]notificationResponse, 0, len(records))
		for _, record := range records {
			list = append(list, newNotificationResponse(record))
		}
		responses.WriteSuccess(w, list)
	}
}

// MarkNotificationRead stamps a single notification as read.
func MarkNotificationRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		identity := middleware.IdentityFromContext(r.Context())
		if identity.UserID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required"))
			return
		}

		notificationID, err := uuid.Parse(chi.URLParam(r, "notificationId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid notification id"))
			return
		}

		if err := svc.MarkRead(r.Context(), *identity.UserID, notificationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "read"})
	}
}

// MarkAllNotificationsRead stamps every unread notification for the user.
func MarkAllNotificationsRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "notifications service unavailable"))
			return
		}

		identity := middleware.IdentityFromContext(r.Context())
		if identity.UserID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "login required"))
			return
		}

		count, err := svc.MarkAllRead(r.Context(), *identity.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"updated": count})
	}
}
