package handler

import (
	"net/http"

	"jndata/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type BundleHandler struct {
	catalog *service.CatalogService
}

func NewBundleHandler(catalog *service.CatalogService) *BundleHandler {
	return &BundleHandler{catalog: catalog}
}

type bundleRequest struct {
	Name       string          `json:"name" binding:"required"`
	Network    string          `json:"network" binding:"required"`
	DataAmount string          `json:"dataAmount" binding:"required"`
	BasePrice  decimal.Decimal `json:"basePrice"`
}

func (r bundleRequest) input() service.BundleInput {
	return service.BundleInput{Name: r.Name, Network: r.Network, DataAmount: r.DataAmount, BasePrice: r.BasePrice}
}

func (h *BundleHandler) List(c *gin.Context) {
	list, err := h.catalog.List(c.Request.Context(), c.Query("network"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bundles": list})
}

func (h *BundleHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	b, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bundle": b})
}

func (h *BundleHandler) Create(c *gin.Context) {
	var req bundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	b, err := h.catalog.Create(c.Request.Context(), req.input(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"bundle": b})
}

func (h *BundleHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req bundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	b, err := h.catalog.Update(c.Request.Context(), id, req.input(), actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bundle": b})
}

func (h *BundleHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.Delete(c.Request.Context(), id, actorFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "bundle deleted"})
}
