package payment

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// StubGateway is an in-memory gateway for local development. Every initialized
// transaction verifies as successful with the amount and metadata it was created with.
type StubGateway struct {
	mu  sync.Mutex
	txs map[string]InitializeRequest
}

func NewStubGateway() *StubGateway {
	return &StubGateway{txs: make(map[string]InitializeRequest)}
}

func (s *StubGateway) InitializeTransaction(ctx context.Context, req InitializeRequest) (*InitializeResponse, error) {
	if req.Reference == "" {
		req.Reference = fmt.Sprintf("stub_%d", time.Now().UnixNano())
	}
	s.mu.Lock()
	s.txs[req.Reference] = req
	s.mu.Unlock()
	return &InitializeResponse{
		AuthorizationURL: "https://checkout.stub.local/" + req.Reference,
		AccessCode:       "stub",
		Reference:        req.Reference,
	}, nil
}

func (s *StubGateway) VerifyTransaction(ctx context.Context, reference string) (*Verification, error) {
	s.mu.Lock()
	req, ok := s.txs[reference]
	s.mu.Unlock()
	if !ok {
		return nil, &APIError{StatusCode: 404, Message: "Transaction reference not found", Err: ErrReferenceNotFound}
	}
	now := time.Now()
	return &Verification{
		Reference:       reference,
		Status:          StatusSuccess,
		Amount:          req.Amount,
		Currency:        req.Currency,
		GatewayResponse: "Approved",
		Metadata:        req.Metadata,
		PaidAt:          &now,
	}, nil
}
