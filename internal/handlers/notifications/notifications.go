package notifications

import (
	"context"
	"net/http"

	"github.com/GlebRadaev/akalimo/internal/domain"
	"github.com/GlebRadaev/akalimo/internal/handlers/httperr"
	"github.com/GlebRadaev/akalimo/pkg/auth"
	"github.com/GlebRadaev/akalimo/pkg/utils"
	"github.com/google/uuid"
)

//go:generate mockgen -source=notifications.go -destination=mock_notifications.go -package=notifications

type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) error
}

type NotificationHandler struct {
	notificationService Service
}

func New(notificationService Service) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// ListNotifications godoc
//
//	@Summary	List my notifications
//	@Tags		Notifications
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{array}		domain.Notification
//	@Failure	500	{object}	utils.Response	"Internal server error"
//	@Router		/api/notifications [get]
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.notificationService.List(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		httperr.Write(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, notifications)
}

// MarkAsRead godoc
//
//	@Summary	Mark a notification as read
//	@Tags		Notifications
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"Notification id"
//	@Success	200	{object}	utils.Response
//	@Failure	404	{object}	utils.Response	"Notification not found"
//	@Router		/api/notifications/{id}/read [patch]
func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	id, err := utils.UUIDParam(r, "id")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid notification id")
		return
	}
	if err := h.notificationService.MarkAsRead(r.Context(), id, auth.UserIDFromContext(r.Context())); err != nil {
		httperr.Write(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.Response{Message: "Marked as read"})
}
