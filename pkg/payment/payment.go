package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type InitializeRequest struct {
	Email       string
	Amount      decimal.Decimal // major units; converted to minor units on the wire
	Currency    string
	Reference   string
	CallbackURL string
	Metadata    map[string]interface{}
}

type InitializeResponse struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// Verification is the gateway's authoritative view of a transaction.
type Verification struct {
	Reference       string
	Status          string // success, failed, abandoned, ...
	Amount          decimal.Decimal
	Currency        string
	GatewayResponse string
	Metadata        map[string]interface{}
	PaidAt          *time.Time
}

const StatusSuccess = "success"

// Gateway initializes and verifies card/mobile-money transactions.
type Gateway interface {
	InitializeTransaction(ctx context.Context, req InitializeRequest) (*InitializeResponse, error)
	VerifyTransaction(ctx context.Context, reference string) (*Verification, error)
}

var (
	ErrUnauthorized      = errors.New("invalid API key or unauthorized access")
	ErrReferenceNotFound = errors.New("transaction reference not found")
	ErrInvalidRequest    = errors.New("invalid transaction data provided")
	ErrRejected          = errors.New("request rejected by gateway")
	ErrUnreachable       = errors.New("could not reach payment gateway")
)

// APIError is returned when the gateway answered with a non-success response.
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%v (status %d)", e.Err, e.StatusCode)
	}
	return fmt.Sprintf("%v: %s (status %d)", e.Err, e.Message, e.StatusCode)
}

func (e *APIError) Unwrap() error { return e.Err }

// IsDefinite reports whether err is an answer from the gateway rather than a transport failure.
// A definite error means the gateway will not act on the request.
func IsDefinite(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
