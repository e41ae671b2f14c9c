package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jndata/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.Validation("bad"), http.StatusBadRequest},
		{domain.InsufficientBalance(decimal.Zero), http.StatusBadRequest},
		{domain.NotFound("missing"), http.StatusNotFound},
		{domain.Forbidden("no"), http.StatusForbidden},
		{domain.Unauthorized("who"), http.StatusUnauthorized},
		{domain.Conflict("dup"), http.StatusConflict},
		{domain.InvalidState("done"), http.StatusConflict},
		{domain.Upstream(errors.New("timeout"), "gateway"), http.StatusBadGateway},
		{domain.Internal(errors.New("db"), "boom"), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestRespondErrorBody(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)
	defer gin.SetMode(gin.TestMode)

	run := func(err error) (int, map[string]interface{}) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		respondError(c, err)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		return w.Code, body
	}

	code, body := run(domain.InsufficientBalance(decimal.RequireFromString("3.5")))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "insufficient balance", body["error"])
	assert.Equal(t, "3.50", body["availableBalance"])

	code, body = run(domain.Internal(errors.New("connection refused"), "load vendor"))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "load vendor", body["error"])
	assert.NotContains(t, body, "detail")

	code, body = run(errors.New("raw"))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "internal error", body["error"])
}

func TestParseDate(t *testing.T) {
	from, err := parseDate("2024-03-01", false)
	require.NoError(t, err)
	assert.Equal(t, 0, from.Hour())

	to, err := parseDate("2024-03-01", true)
	require.NoError(t, err)
	assert.True(t, to.After(from))
	assert.Equal(t, 23, to.Hour())

	exact, err := parseDate("2024-03-01T10:00:00Z", true)
	require.NoError(t, err)
	assert.True(t, exact.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))

	_, err = parseDate("yesterday", false)
	assert.Error(t, err)
}
