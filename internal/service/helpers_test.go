package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"jndata/config"
	"jndata/internal/repository"
	"jndata/internal/testutil"
	"jndata/pkg/payment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testSecret = "sk_test_secret"

var testPage = repository.Page{Limit: 50}

// fakeGateway answers initialize like the real gateway and verify from a table the test controls.
type fakeGateway struct {
	mu          sync.Mutex
	initErr     error
	verifyErr   error
	verified    map[string]*payment.Verification
	initialized []payment.InitializeRequest
	verifyCalls int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{verified: map[string]*payment.Verification{}}
}

func (g *fakeGateway) InitializeTransaction(_ context.Context, req payment.InitializeRequest) (*payment.InitializeResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.initErr != nil {
		return nil, g.initErr
	}
	g.initialized = append(g.initialized, req)
	g.verified[req.Reference] = &payment.Verification{
		Reference: req.Reference,
		Status:    payment.StatusSuccess,
		Amount:    req.Amount,
		Metadata:  roundTripMeta(req.Metadata),
	}
	return &payment.InitializeResponse{AuthorizationURL: "https://checkout.test/" + req.Reference, Reference: req.Reference}, nil
}

func (g *fakeGateway) VerifyTransaction(_ context.Context, reference string) (*payment.Verification, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verifyCalls++
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	v, ok := g.verified[reference]
	if !ok {
		return nil, &payment.APIError{StatusCode: 404, Err: payment.ErrReferenceNotFound}
	}
	cp := *v
	return &cp, nil
}

func (g *fakeGateway) set(ref string, mutate func(v *payment.Verification)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.verified[ref]
	if !ok {
		v = &payment.Verification{Reference: ref, Status: payment.StatusSuccess}
		g.verified[ref] = v
	}
	mutate(v)
}

// roundTripMeta mimics metadata coming back from the gateway as decoded JSON.
func roundTripMeta(meta map[string]interface{}) map[string]interface{} {
	b, _ := json.Marshal(meta)
	var out map[string]interface{}
	_ = json.Unmarshal(b, &out)
	return out
}

type sentEvent struct {
	channel string
	vendor  uint
	ev      Event
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (n *recordingNotifier) NotifyVendor(vendorID uint, ev Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sentEvent{vendor: vendorID, ev: ev})
}

func (n *recordingNotifier) NotifyRole(role string, ev Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sentEvent{channel: role, ev: ev})
}

func (n *recordingNotifier) count(channel string, vendorID uint, typ string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e.channel == channel && e.vendor == vendorID && e.ev.Type == typ {
			c++
		}
	}
	return c
}

type fixture struct {
	db         *gorm.DB
	store      *repository.Store
	gateway    *fakeGateway
	notify     *recordingNotifier
	pricing    *PricingService
	settlement *SettlementService
	ledger     *LedgerService
	orders     *OrderService
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithPooling(t, config.PoolingPooled)
}

func newFixtureWithPooling(t *testing.T, pooling string) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	store := repository.NewStore(db)
	gw := newFakeGateway()
	notify := &recordingNotifier{}
	log := zap.NewNop()
	pricing := NewPricingService(store)
	return &fixture{
		db:      db,
		store:   store,
		gateway: gw,
		notify:  notify,
		pricing: pricing,
		settlement: NewSettlementService(store, pricing, gw, notify, &config.PaystackConfig{
			SecretKey: testSecret,
			Currency:  "GHS",
			Timeout:   time.Second,
		}, log),
		ledger: NewLedgerService(store, notify, &config.LedgerConfig{SubVendorPooling: pooling}, log),
		orders: NewOrderService(store, pricing, notify, log),
	}
}

// webhook builds a signed charge.success body for ref.
func webhook(t *testing.T, ref string, amount decimal.Decimal, meta map[string]interface{}) ([]byte, string) {
	t.Helper()
	payload := map[string]interface{}{
		"event": "charge.success",
		"data": map[string]interface{}{
			"reference": ref,
			"amount":    amount.Shift(2).IntPart(),
			"status":    "success",
			"metadata":  meta,
		},
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return body, payment.Sign(testSecret, body)
}

func (f *fixture) orderCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Table("orders").Count(&n).Error)
	return n
}
