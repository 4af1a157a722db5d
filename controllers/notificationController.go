package controllers

import (
	"log/slog"
	"net/http"

	"hostelgrievance-be/services"

	"github.com/gin-gonic/gin"
)

// NotificationController serves the per-role notification feeds. The route
// guard pins each feed path to one role.
type NotificationController struct {
	notifications *services.NotificationService
	logger        *slog.Logger
}

func NewNotificationController(notifications *services.NotificationService, logger *slog.Logger) *NotificationController {
	return &NotificationController{notifications: notifications, logger: logger}
}

func (h *NotificationController) Feed(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	items, err := h.notifications.Feed(c.Request.Context(), caller)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *NotificationController) MarkRead(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	alreadyRead, err := h.notifications.MarkRead(c.Request.Context(), caller, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "alreadyRead": alreadyRead})
}
