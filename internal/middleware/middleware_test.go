package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jndata/config"
	"jndata/internal/auth"
	"jndata/internal/domain"
	"jndata/internal/repository"
	"jndata/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jwtCfg = &config.JWTConfig{AccessSecret: "mw-secret", AccessExpiry: time.Hour, Issuer: "jndata-test"}

func init() {
	gin.SetMode(gin.TestMode)
}

func token(t *testing.T, id uint, role string) string {
	t.Helper()
	tok, err := auth.GenerateAccessToken(jwtCfg, id, role)
	require.NoError(t, err)
	return tok
}

func serve(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	r := gin.New()
	r.GET("/", AuthRequired(jwtCfg), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetUserID(c), "role": GetRole(c)})
	})

	assert.Equal(t, http.StatusUnauthorized, serve(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Bearer not-a-jwt").Code)

	other, err := auth.GenerateAccessToken(&config.JWTConfig{AccessSecret: "other", AccessExpiry: time.Hour}, 1, domain.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Bearer "+other).Code)

	w := serve(r, "bearer "+token(t, 42, domain.RoleVendor))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":42,"role":"vendor"}`, w.Body.String())
}

func TestRoleGates(t *testing.T) {
	r := gin.New()
	r.GET("/", AuthRequired(jwtCfg), AdminRequired(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusForbidden, serve(r, "Bearer "+token(t, 1, domain.RoleVendor)).Code)
	assert.Equal(t, http.StatusNoContent, serve(r, "Bearer "+token(t, 1, domain.RoleAdmin)).Code)

	vendorOnly := gin.New()
	vendorOnly.GET("/", RequireRole(domain.RoleVendor), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	assert.Equal(t, http.StatusUnauthorized, serve(vendorOnly, "").Code, "no role set")
}

func TestApprovedVendor(t *testing.T) {
	db := testutil.NewDB(t)
	store := repository.NewStore(db)
	approved := testutil.Vendor(t, db, "approved")
	pending := testutil.Vendor(t, db, "pending")
	require.NoError(t, db.Model(pending).Update("approved", false).Error)

	r := gin.New()
	r.GET("/", AuthRequired(jwtCfg), ApprovedVendor(store), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, serve(r, "Bearer "+token(t, approved.ID, domain.RoleVendor)).Code)

	w := serve(r, "Bearer "+token(t, pending.ID, domain.RoleVendor))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "pending approval")

	assert.Equal(t, http.StatusUnauthorized, serve(r, "Bearer "+token(t, 9999, domain.RoleVendor)).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, "Bearer "+token(t, approved.ID, domain.RoleAdmin)).Code)
}

func TestRateLimit(t *testing.T) {
	limiter := NewInMemoryRateLimiter(2, time.Minute)
	defer limiter.Close()

	r := gin.New()
	r.GET("/", RateLimit(limiter, "storefront"), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/other", RateLimit(limiter, "auth"), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, serve(r, "").Code)
	assert.Equal(t, http.StatusNoContent, serve(r, "").Code)
	w := serve(r, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	// Scopes are counted separately.
	req := httptest.NewRequest(http.MethodGet, "/other", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestPrune(t *testing.T) {
	now := time.Now()
	times := []time.Time{now.Add(-2 * time.Minute), now.Add(-30 * time.Second), now}
	assert.Len(t, prune(times, now.Add(-time.Minute)), 2)
	assert.Empty(t, prune(nil, now))
}
