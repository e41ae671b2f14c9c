package handler

import (
	"net/http"

	"jndata/internal/middleware"
	"jndata/internal/service"

	"github.com/gin-gonic/gin"
)

// MeHandler serves the authenticated vendor's own profile and balance.
type MeHandler struct {
	vendorSvc *service.VendorService
	ledger    *service.LedgerService
}

func NewMeHandler(vendorSvc *service.VendorService, ledger *service.LedgerService) *MeHandler {
	return &MeHandler{vendorSvc: vendorSvc, ledger: ledger}
}

func (h *MeHandler) Get(c *gin.Context) {
	v, err := h.vendorSvc.Get(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vendor": v})
}

func (h *MeHandler) Update(c *gin.Context) {
	var req struct {
		Name     *string `json:"name"`
		Phone    *string `json:"phone"`
		FCMToken *string `json:"fcmToken"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	v, err := h.vendorSvc.UpdateProfile(c.Request.Context(), middleware.GetUserID(c), service.ProfileUpdate{
		Name:     req.Name,
		Phone:    req.Phone,
		FCMToken: req.FCMToken,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vendor": v})
}

// Profit returns the live balance: total profit, approved withdrawals and what is available.
func (h *MeHandler) Profit(c *gin.Context) {
	b, err := h.ledger.Balance(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// Dashboard returns order counts, total sales and pending payouts next to the balance.
func (h *MeHandler) Dashboard(c *gin.Context) {
	d, err := h.ledger.Dashboard(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": d})
}
