package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"jndata/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	vendorSvc  *service.VendorService
	settlement *service.SettlementService
	reconciler *service.Reconciler
}

func NewAdminHandler(vendorSvc *service.VendorService, settlement *service.SettlementService, reconciler *service.Reconciler) *AdminHandler {
	return &AdminHandler{vendorSvc: vendorSvc, settlement: settlement, reconciler: reconciler}
}

// ListVendors handles GET /admin/vendors?approved=true|false.
func (h *AdminHandler) ListVendors(c *gin.Context) {
	var approved *bool
	if q := c.Query("approved"); q != "" {
		b, err := strconv.ParseBool(q)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "approved must be true or false"})
			return
		}
		approved = &b
	}
	page := pageFromQuery(c)
	list, total, err := h.vendorSvc.List(c.Request.Context(), approved, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "limit": page.Limit, "offset": page.Offset})
}

// GetVendor handles GET /admin/vendors/:id.
func (h *AdminHandler) GetVendor(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	v, err := h.vendorSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	subs, err := h.vendorSvc.SubVendors(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vendor": v, "subVendors": subs})
}

// SetApproval handles PUT /admin/vendors/:id/approve. An empty body approves.
func (h *AdminHandler) SetApproval(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	req := struct {
		Approved *bool `json:"approved"`
	}{}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		bindError(c, err)
		return
	}
	approved := true
	if req.Approved != nil {
		approved = *req.Approved
	}
	v, err := h.vendorSvc.SetApproval(c.Request.Context(), id, approved, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vendor": v})
}

// ListTransactions handles GET /admin/transactions?status=.
func (h *AdminHandler) ListTransactions(c *gin.Context) {
	list, total, err := h.settlement.ListTransactions(c.Request.Context(), c.Query("status"), pageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": list, "total": total})
}

// VerifyTransaction handles POST /admin/transactions/:reference/verify.
func (h *AdminHandler) VerifyTransaction(c *gin.Context) {
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

// Reconcile handles POST /admin/reconcile, running one reconciliation pass now.
func (h *AdminHandler) Reconcile(c *gin.Context) {
	report, err := h.reconciler.RunOnce(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// AuditLogs handles GET /admin/audit-logs?resource=.
func (h *AdminHandler) AuditLogs(c *gin.Context) {
	list, err := h.vendorSvc.AuditLog(c.Request.Context(), c.Query("resource"), pageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}
