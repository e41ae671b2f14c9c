package payment

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeTransactionSendsMinorUnits(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"jn-1"}}`))
	}))
	defer srv.Close()

	gw := NewPaystackGateway(srv.URL, "sk_test", time.Second)
	resp, err := gw.InitializeTransaction(context.Background(), InitializeRequest{
		Email:     "buyer@example.com",
		Amount:    decimal.RequireFromString("12.50"),
		Reference: "jn-1",
		Metadata:  map[string]interface{}{"bundleId": 3},
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.paystack.com/abc", resp.AuthorizationURL)
	assert.Equal(t, "jn-1", resp.Reference)
	assert.Equal(t, float64(1250), got["amount"])
	assert.Equal(t, "jn-1", got["reference"])
}

func TestInitializeTransactionClassifiesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":false,"message":"Invalid key"}`))
	}))
	defer srv.Close()

	gw := NewPaystackGateway(srv.URL, "bad", time.Second)
	_, err := gw.InitializeTransaction(context.Background(), InitializeRequest{Amount: decimal.NewFromInt(1)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.True(t, IsDefinite(err))
}

func TestVerifyTransactionConvertsAmountAndMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/verify/jn-2", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":true,"message":"Verification successful","data":{"reference":"jn-2","status":"success","amount":1200,"currency":"GHS","paid_at":"2024-05-01T10:00:00Z","metadata":{"bundleId":7,"customerPhone":"0241234567","vendorId":"3"}}}`))
	}))
	defer srv.Close()

	gw := NewPaystackGateway(srv.URL, "sk_test", time.Second)
	v, err := gw.VerifyTransaction(context.Background(), "jn-2")
	require.NoError(t, err)
	assert.Equal(t, "success", v.Status)
	assert.True(t, v.Amount.Equal(decimal.NewFromInt(12)))
	require.NotNil(t, v.PaidAt)
	assert.Equal(t, json.Number("7"), v.Metadata["bundleId"])
	assert.Equal(t, "3", v.Metadata["vendorId"])
}

func TestVerifyTransactionNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":false,"message":"Transaction reference not found"}`))
	}))
	defer srv.Close()

	_, err := NewPaystackGateway(srv.URL, "sk", time.Second).VerifyTransaction(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrReferenceNotFound)
}

func TestUnreachableGatewayIsNotDefinite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewPaystackGateway(url, "sk", 200*time.Millisecond).VerifyTransaction(context.Background(), "jn-3")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnreachable)
	assert.False(t, IsDefinite(err))
}

func TestDecodeMetadataAcceptsEncodedString(t *testing.T) {
	m := DecodeMetadata(json.RawMessage(`"{\"bundleId\":4}"`))
	assert.Equal(t, json.Number("4"), m["bundleId"])
	assert.Nil(t, DecodeMetadata(json.RawMessage(`""`)))
	assert.Nil(t, DecodeMetadata(nil))
}

func TestStubGatewayRoundTrip(t *testing.T) {
	gw := NewStubGateway()
	_, err := gw.InitializeTransaction(context.Background(), InitializeRequest{Reference: "r1", Amount: decimal.NewFromInt(9)})
	require.NoError(t, err)

	v, err := gw.VerifyTransaction(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, v.Status)
	assert.True(t, v.Amount.Equal(decimal.NewFromInt(9)))

	_, err = gw.VerifyTransaction(context.Background(), "r2")
	assert.ErrorIs(t, err, ErrReferenceNotFound)
}
