package middleware

import (
	"net/http"

	"jndata/internal/domain"
	"jndata/internal/repository"

	"github.com/gin-gonic/gin"
)

// ApprovedVendor lets through vendors whose account is approved. Use after AuthRequired.
// Approval is read on every request so an admin's change takes effect immediately.
func ApprovedVendor(store *repository.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) != domain.RoleVendor {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "vendor access required"})
			return
		}
		v, err := store.Vendors.GetByID(c.Request.Context(), GetUserID(c))
		if err != nil {
			if repository.IsNotFound(err) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "vendor account not found"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if !v.Approved {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "vendor account is pending approval"})
			return
		}
		c.Next()
	}
}
