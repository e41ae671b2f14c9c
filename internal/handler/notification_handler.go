package handler

import (
	"net/http"

	"jndata/internal/middleware"
	"jndata/internal/service"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	vendorSvc *service.VendorService
}

func NewNotificationHandler(vendorSvc *service.VendorService) *NotificationHandler {
	return &NotificationHandler{vendorSvc: vendorSvc}
}

func (h *NotificationHandler) List(c *gin.Context) {
	unread := c.Query("unread") == "true"
	list, err := h.vendorSvc.Notifications(c.Request.Context(), middleware.GetUserID(c), unread, pageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.vendorSvc.MarkNotificationRead(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
