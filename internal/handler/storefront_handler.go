package handler

import (
	"net/http"

	"jndata/internal/service"

	"github.com/gin-gonic/gin"
)

// StorefrontHandler serves the public pages behind a vendor link: bundles, checkout and guest orders.
type StorefrontHandler struct {
	vendorSvc  *service.VendorService
	pricing    *service.PricingService
	settlement *service.SettlementService
	orders     *service.OrderService
}

func NewStorefrontHandler(vendorSvc *service.VendorService, pricing *service.PricingService, settlement *service.SettlementService, orders *service.OrderService) *StorefrontHandler {
	return &StorefrontHandler{vendorSvc: vendorSvc, pricing: pricing, settlement: settlement, orders: orders}
}

func (h *StorefrontHandler) Vendor(c *gin.Context) {
	v, err := h.vendorSvc.GetByLink(c.Request.Context(), c.Param("vendorLink"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vendor": gin.H{
		"id":         v.ID,
		"name":       v.Name,
		"phone":      v.Phone,
		"vendorLink": v.VendorLink,
	}})
}

func (h *StorefrontHandler) Bundles(c *gin.Context) {
	v, err := h.vendorSvc.GetByLink(c.Request.Context(), c.Param("vendorLink"))
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

// Pay starts a gateway checkout. The order only exists once the payment is confirmed.
// Fields are validated by the service after the vendor and bundle checks.
func (h *StorefrontHandler) Pay(c *gin.Context) {
	var req struct {
		BundleID      uint   `json:"bundleId"`
		CustomerPhone string `json:"customerPhone"`
		CustomerEmail string `json:"customerEmail"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.settlement.InitiatePayment(c.Request.Context(), service.InitiateRequest{
		VendorLink:    c.Param("vendorLink"),
		BundleID:      req.BundleID,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *StorefrontHandler) CreateOrder(c *gin.Context) {
	var req struct {
		BundleID      uint   `json:"bundleId"`
		CustomerPhone string `json:"customerPhone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	o, err := h.orders.CreateGuestOrder(c.Request.Context(), c.Param("vendorLink"), req.BundleID, req.CustomerPhone)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": o})
}
