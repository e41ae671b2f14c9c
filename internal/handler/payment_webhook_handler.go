package handler

import (
	"io"
	"net/http"

	"jndata/internal/service"
	"jndata/pkg/payment"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

type PaymentWebhookHandler struct {
	settlement *service.SettlementService
}

func NewPaymentWebhookHandler(settlement *service.SettlementService) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{settlement: settlement}
}

// Handle receives Paystack events. The raw body is kept intact for the signature check.
// Rejections still carry the result so the stored reason is visible to whoever replays it.
func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	res, err := h.settlement.HandleConfirmation(c.Request.Context(), body, c.GetHeader(payment.SignatureHeader))
	if err != nil {
		if res != nil {
			c.JSON(StatusFor(err), gin.H{"error": res.Reason, "result": res})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "result": res})
}

// Status re-verifies a reference for the checkout callback page.
func (h *PaymentWebhookHandler) Status(c *gin.Context) {
	res, err := h.settlement.VerifyReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		if res != nil {
			c.JSON(StatusFor(err), gin.H{"error": res.Reason, "result": res})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": res})
}
