package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"jndata/pkg/money"

	"github.com/go-resty/resty/v2"
)

// PaystackGateway talks to the Paystack transaction API.
type PaystackGateway struct {
	client *resty.Client
}

func NewPaystackGateway(baseURL, secretKey string, timeout time.Duration) *PaystackGateway {
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetAuthToken(secretKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &PaystackGateway{client: client}
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type paystackInitData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type paystackVerifyData struct {
	Reference       string          `json:"reference"`
	Status          string          `json:"status"`
	Amount          int64           `json:"amount"`
	Currency        string          `json:"currency"`
	GatewayResponse string          `json:"gateway_response"`
	PaidAt          string          `json:"paid_at"`
	Metadata        json.RawMessage `json:"metadata"`
}

func (p *PaystackGateway) InitializeTransaction(ctx context.Context, req InitializeRequest) (*InitializeResponse, error) {
	minor, err := money.ToMinor(req.Amount)
	if err != nil {
		return nil, &APIError{StatusCode: http.StatusUnprocessableEntity, Message: err.Error(), Err: ErrInvalidRequest}
	}
	body := map[string]interface{}{
		"email":     req.Email,
		"amount":    minor,
		"reference": req.Reference,
		"metadata":  req.Metadata,
	}
	if req.Currency != "" {
		body["currency"] = req.Currency
	}
	if req.CallbackURL != "" {
		body["callback_url"] = req.CallbackURL
	}

	resp, err := p.client.R().SetContext(ctx).SetBody(body).Post("/transaction/initialize")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	env, err := decodeEnvelope(resp)
	if err != nil {
		return nil, err
	}
	var data paystackInitData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("paystack initialize: decode data: %w", err)
	}
	if data.Reference == "" {
		data.Reference = req.Reference
	}
	return &InitializeResponse{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
	}, nil
}

func (p *PaystackGateway) VerifyTransaction(ctx context.Context, reference string) (*Verification, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetPathParam("reference", reference).
		Get("/transaction/verify/{reference}")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	env, err := decodeEnvelope(resp)
	if err != nil {
		return nil, err
	}
	var data paystackVerifyData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("paystack verify: decode data: %w", err)
	}
	v := &Verification{
		Reference:       data.Reference,
		Status:          data.Status,
		Amount:          money.FromMinor(data.Amount),
		Currency:        data.Currency,
		GatewayResponse: data.GatewayResponse,
		Metadata:        DecodeMetadata(data.Metadata),
	}
	if v.Reference == "" {
		v.Reference = reference
	}
	if data.PaidAt != "" {
		if t, err := time.Parse(time.RFC3339, data.PaidAt); err == nil {
			v.PaidAt = &t
		}
	}
	return v, nil
}

func decodeEnvelope(resp *resty.Response) (*paystackEnvelope, error) {
	var env paystackEnvelope
	_ = json.Unmarshal(resp.Body(), &env)
	if resp.IsError() {
		return nil, &APIError{StatusCode: resp.StatusCode(), Message: env.Message, Err: classifyStatus(resp.StatusCode())}
	}
	if !env.Status {
		return nil, &APIError{StatusCode: resp.StatusCode(), Message: env.Message, Err: ErrRejected}
	}
	return &env, nil
}

func classifyStatus(code int) error {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrReferenceNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrInvalidRequest
	default:
		return ErrRejected
	}
}

// DecodeMetadata accepts metadata as an object or as a JSON-encoded string; numbers stay json.Number.
func DecodeMetadata(raw json.RawMessage) map[string]interface{} {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || s == "" {
			return nil
		}
		raw = []byte(s)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out map[string]interface{}
	if err := dec.Decode(&out); err != nil {
		return nil
	}
	return out
}
