package handler

import (
	"net/http"

	"jndata/internal/middleware"
	"jndata/internal/service"

	"github.com/gin-gonic/gin"
)

type SubVendorHandler struct {
	authSvc   *service.AuthService
	vendorSvc *service.VendorService
}

func NewSubVendorHandler(authSvc *service.AuthService, vendorSvc *service.VendorService) *SubVendorHandler {
	return &SubVendorHandler{authSvc: authSvc, vendorSvc: vendorSvc}
}

func (h *SubVendorHandler) Create(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Phone    string `json:"phone" binding:"omitempty,ghphone"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	v, err := h.authSvc.CreateSubVendor(c.Request.Context(), middleware.GetUserID(c), service.VendorSignup{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"subVendor": v})
}

func (h *SubVendorHandler) List(c *gin.Context) {
	list, err := h.vendorSvc.SubVendors(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subVendors": list})
}
