package service

import (
	"errors"

	"jndata/internal/domain"
)

// publicMessage returns the caller-safe part of err.
func publicMessage(err error) string {
	var e *domain.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// wrapInternal passes classified errors through and marks anything else internal.
func wrapInternal(err error, msg string) error {
	var e *domain.Error
	if errors.As(err, &e) {
		return err
	}
	return domain.Internal(err, "%s", msg)
}
