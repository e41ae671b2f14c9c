package handler

import (
	"net/http"

	"jndata/internal/middleware"
	"jndata/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type WithdrawalHandler struct {
	ledger *service.LedgerService
}

func NewWithdrawalHandler(ledger *service.LedgerService) *WithdrawalHandler {
	return &WithdrawalHandler{ledger: ledger}
}

// Create files a withdrawal request for the authenticated vendor.
func (h *WithdrawalHandler) Create(c *gin.Context) {
	var req struct {
		AmountRequested   decimal.Decimal `json:"amountRequested"`
		MobileMoneyNumber string          `json:"mobileMoneyNumber" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	w, err := h.ledger.RequestWithdrawal(c.Request.Context(), middleware.GetUserID(c), req.AmountRequested, req.MobileMoneyNumber)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "withdrawal request submitted", "withdrawal": w})
}

func (h *WithdrawalHandler) ListMine(c *gin.Context) {
	list, total, err := h.ledger.ListForVendor(c.Request.Context(), middleware.GetUserID(c), pageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": list, "total": total})
}

// List is the admin queue, optionally filtered by status.
func (h *WithdrawalHandler) List(c *gin.Context) {
	list, total, err := h.ledger.List(c.Request.Context(), c.Query("status"), pageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": list, "total": total})
}

// Process approves or rejects a pending withdrawal.
func (h *WithdrawalHandler) Process(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required,oneof=approved rejected"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	w, err := h.ledger.ProcessWithdrawal(c.Request.Context(), id, req.Status, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "withdrawal " + w.Status, "withdrawal": w})
}

func actorFrom(c *gin.Context) service.Actor {
	return service.Actor{ID: middleware.GetUserID(c), IP: c.ClientIP()}
}
