package handler

import (
	"log"
	"net/http"
	"strconv"

	"ecoplaint/backend/internal/config"
	"ecoplaint/backend/internal/models"

	"github.com/gin-gonic/gin"
)

type notificationView struct {
	ID        uint   `json:"id"`
	Recipient *uint  `json:"recipient"`
	Kind      string `json:"type"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	SentAt    string `json:"sent_at"`
}

func newNotificationView(n models.Notification) notificationView {
	return notificationView{
		ID:        n.ID,
		Recipient: n.RecipientID,
		Kind:      n.Kind,
		Message:   n.Message,
		Read:      n.Read,
		SentAt:    n.SentAt.Format(config.NotificationDateLayout),
	}
}

// ListNotifications returns the newest notifications first.
func (h *Handler) ListNotifications(c *gin.Context) {
	limit := config.DefaultNotificationLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.fail(c, http.StatusBadRequest, "invalid_limit", nil)
			return
		}
		limit = min(n, config.MaxNotificationLimit)
	}

	notifications, err := h.Store.ListNotifications(c.Request.Context(), limit)
	if err != nil {
		log.Printf("ERROR: Failed to fetch notifications: %v", err)
		h.serverError(c, "notifications_error", err)
		return
	}

	views := make([]notificationView, 0, len(notifications))
	for _, n := range notifications {
		views = append(views, newNotificationView(n))
	}
	c.JSON(http.StatusOK, views)
}
