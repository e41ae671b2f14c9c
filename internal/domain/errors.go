package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Error kinds. Match with errors.Is against any error returned by a service.
var (
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrConflict            = errors.New("conflict")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidState        = errors.New("invalid state")
	ErrUpstream            = errors.New("upstream error")
	ErrInternal            = errors.New("internal error")
)

// Error is a classified service error. Message is safe to show to callers; Cause is not.
type Error struct {
	Kind    error
	Message string
	Cause   error
	Extra   map[string]interface{}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func newError(kind error, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func Validation(format string, args ...interface{}) *Error {
	return newError(ErrValidation, nil, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return newError(ErrNotFound, nil, format, args...)
}

func Forbidden(format string, args ...interface{}) *Error {
	return newError(ErrForbidden, nil, format, args...)
}

func Unauthorized(format string, args ...interface{}) *Error {
	return newError(ErrUnauthorized, nil, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return newError(ErrConflict, nil, format, args...)
}

func InvalidState(format string, args ...interface{}) *Error {
	return newError(ErrInvalidState, nil, format, args...)
}

func Upstream(cause error, format string, args ...interface{}) *Error {
	return newError(ErrUpstream, cause, format, args...)
}

func Internal(cause error, format string, args ...interface{}) *Error {
	return newError(ErrInternal, cause, format, args...)
}

// InsufficientBalance carries the balance the request was checked against.
func InsufficientBalance(available decimal.Decimal) *Error {
	return &Error{
		Kind:    ErrInsufficientBalance,
		Message: "insufficient balance",
		Extra:   map[string]interface{}{"availableBalance": available.StringFixed(2)},
	}
}

// KindOf returns the kind sentinel of err, or ErrInternal for unclassified errors.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) && e.Kind != nil {
		return e.Kind
	}
	return ErrInternal
}
