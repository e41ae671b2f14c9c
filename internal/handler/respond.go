package handler

import (
	"errors"
	"net/http"
	"strconv"

	"jndata/internal/domain"
	"jndata/internal/logger"
	"jndata/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var kindStatus = []struct {
	kind   error
	status int
}{
	{domain.ErrValidation, http.StatusBadRequest},
	{domain.ErrInsufficientBalance, http.StatusBadRequest},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrUnauthorized, http.StatusUnauthorized},
	{domain.ErrConflict, http.StatusConflict},
	{domain.ErrInvalidState, http.StatusConflict},
	{domain.ErrUpstream, http.StatusBadGateway},
}

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	kind := domain.KindOf(err)
	for _, ks := range kindStatus {
		if kind == ks.kind {
			return ks.status
		}
	}
	return http.StatusInternalServerError
}

// respondError writes {"error": msg} plus any structured extras. Causes are logged, and only
// exposed under "detail" when gin runs in debug mode.
func respondError(c *gin.Context, err error) {
	status := StatusFor(err)
	body := gin.H{}
	var de *domain.Error
	if errors.As(err, &de) {
		body["error"] = de.Message
		for k, v := range de.Extra {
			body[k] = v
		}
	} else {
		body["error"] = "internal error"
	}

	log := logger.FromGin(c, zap.L())
	switch {
	case status == http.StatusBadGateway:
		log.Warn("upstream failure", zap.Error(err))
	case status >= http.StatusInternalServerError:
		log.Error("request failed", zap.Int("status", status), zap.Error(err))
		if gin.IsDebugging() {
			body["detail"] = err.Error()
		}
	}
	c.AbortWithStatusJSON(status, body)
}

// bindError answers a request body that failed to bind or validate.
func bindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func pageFromQuery(c *gin.Context) repository.Page {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	return repository.Page{Limit: limit, Offset: offset}
}
