package handler

import (
	"net/http"

	"jndata/internal/middleware"
	"jndata/internal/service"

	"github.com/gin-gonic/gin"
)

type PricingHandler struct {
	pricing   *service.PricingService
	vendorSvc *service.VendorService
}

func NewPricingHandler(pricing *service.PricingService, vendorSvc *service.VendorService) *PricingHandler {
	return &PricingHandler{pricing: pricing, vendorSvc: vendorSvc}
}

type priceUpdatesRequest struct {
	Prices []service.PriceUpdate `json:"prices" binding:"required,min=1"`
}

// List returns every bundle with the caller's effective price.
func (h *PricingHandler) List(c *gin.Context) {
	v, err := h.vendorSvc.Get(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	bundles, err := h.pricing.Storefront(c.Request.Context(), v)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bundles": bundles})
}

func (h *PricingHandler) Update(c *gin.Context) {
	h.update(c, middleware.GetUserID(c))
}

// AdminUpdate sets prices on behalf of a vendor.
func (h *PricingHandler) AdminUpdate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	h.update(c, id)
}

func (h *PricingHandler) update(c *gin.Context, vendorID uint) {
	var req priceUpdatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	results, err := h.pricing.SetPrices(c.Request.Context(), vendorID, req.Prices)
	if err != nil {
		if results == nil {
			respondError(c, err)
			return
		}
		c.JSON(StatusFor(err), gin.H{"error": "some prices could not be updated", "results": results})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "prices updated", "results": results})
}
