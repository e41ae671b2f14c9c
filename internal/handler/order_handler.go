package handler

import (
	"net/http"
	"time"

	"jndata/internal/middleware"
	"jndata/internal/service"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// ListMine returns orders the vendor owns or sold. Filters: status, from, to (RFC 3339 or YYYY-MM-DD).
func (h *OrderHandler) ListMine(c *gin.Context) {
	q, ok := orderQuery(c)
	if !ok {
		return
	}
	list, total, err := h.orders.ListForVendor(c.Request.Context(), middleware.GetUserID(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list, "total": total})
}

func (h *OrderHandler) List(c *gin.Context) {
	q, ok := orderQuery(c)
	if !ok {
		return
	}
	list, total, err := h.orders.ListAll(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list, "total": total})
}

// UpdateStatus handles PUT /admin/orders/:id/status.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required,oneof=complete cancelled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	o, err := h.orders.UpdateStatus(c.Request.Context(), id, req.Status, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o})
}

func orderQuery(c *gin.Context) (service.OrderQuery, bool) {
	q := service.OrderQuery{Status: c.Query("status"), Page: pageFromQuery(c)}
	for _, f := range []struct {
		name string
		dst  **time.Time
		end  bool
	}{{"from", &q.From, false}, {"to", &q.To, true}} {
		raw := c.Query(f.name)
		if raw == "" {
			continue
		}
		t, err := parseDate(raw, f.end)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + f.name + " date"})
			return q, false
		}
		*f.dst = &t
	}
	return q, true
}

// parseDate accepts RFC 3339 or a bare date; a bare "to" date covers the whole day.
func parseDate(raw string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
