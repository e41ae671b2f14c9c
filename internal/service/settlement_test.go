package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"jndata/internal/domain"
	"jndata/internal/models"
	"jndata/internal/testutil"
	"jndata/pkg/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initiate(t *testing.T, f *fixture, vendor *models.Vendor, bundle *models.DataBundle) *InitiateResult {
	t.Helper()
	res, err := f.settlement.InitiatePayment(context.Background(), InitiateRequest{
		VendorLink:    vendor.VendorLink,
		BundleID:      bundle.ID,
		CustomerPhone: "024 123 4567",
		CustomerEmail: "buyer@example.com",
	})
	require.NoError(t, err)
	return res
}

func TestInitiatePaymentRecordsPendingTransaction(t *testing.T) {
	f := newFixture(t)
	v := testutil.Vendor(t, f.db, "alpha")
	b := testutil.Bundle(t, f.db, "1GB", "20")
	testutil.Price(t, f.db, v, b, "25")

	res := initiate(t, f, v, b)
	assert.True(t, res.Amount.Equal(testutil.Dec("25")))
	assert.Contains(t, res.AuthorizationURL, res.Reference)

	tx, err := f.store.Transactions.GetByReference(context.Background(), res.Reference)
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusPending, tx.Status)
	assert.True(t, tx.Amount.Equal(testutil.Dec("25")))
	assert.Nil(t, tx.OrderID)
	assert.Zero(t, f.orderCount(t))

	require.Len(t, f.gateway.initialized, 1)
	sent := f.gateway.initialized[0]
	assert.Equal(t, "0241234567", sent.Metadata[domain.MetaCustomerPhone])
	assert.Equal(t, b.ID, sent.Metadata[domain.MetaBundleID])
	assert.Equal(t, v.ID, sent.Metadata[domain.MetaVendorID])
}

func TestInitiatePaymentValidation(t *testing.T) {
	f := newFixture(t)
	v := testutil.Vendor(t, f.db, "alpha")
	b := testutil.Bundle(t, f.db, "1GB", "20")
	pending := testutil.Vendor(t, f.db, "beta")
	require.NoError(t, f.db.Model(pending).Update("approved", false).Error)

	cases := []struct {
		name string
		req  InitiateRequest
		kind error
	}{
		{"unknown vendor", InitiateRequest{VendorLink: "v-missing", BundleID: b.ID, CustomerPhone: "0241234567", CustomerEmail: "a@b.co"}, domain.ErrForbidden},
		{"unapproved vendor", InitiateRequest{VendorLink: pending.VendorLink, BundleID: b.ID, CustomerPhone: "0241234567", CustomerEmail: "a@b.co"}, domain.ErrForbidden},
		{"unknown bundle", InitiateRequest{VendorLink: v.VendorLink, BundleID: 999, CustomerPhone: "0241234567", CustomerEmail: "a@b.co"}, domain.ErrNotFound},
		{"bad phone", InitiateRequest{VendorLink: v.VendorLink, BundleID: b.ID, CustomerPhone: "0141234567", CustomerEmail: "a@b.co"}, domain.ErrValidation},
		{"bad email", InitiateRequest{VendorLink: v.VendorLink, BundleID: b.ID, CustomerPhone: "0241234567", CustomerEmail: "nope"}, domain.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.settlement.InitiatePayment(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.kind)
		})
	}
	assert.Empty(t, f.gateway.initialized)
}

func TestInitiatePaymentGatewayFailures(t *testing.T) {
	f := newFixture(t)
	v := testutil.Vendor(t, f.db, "alpha")
	b := testutil.Bundle(t, f.db, "1GB", "20")
	req := InitiateRequest{VendorLink: v.VendorLink, BundleID: b.ID, CustomerPhone: "0241234567", CustomerEmail: "a@b.co"}

	t.Run("timeout leaves transaction pending", func(t *testing.T) {
		f.gateway.initErr = fmt.Errorf("%w: context deadline exceeded", payment.ErrUnreachable)
		_, err := f.settlement.InitiatePayment(context.Background(), req)
		assert.ErrorIs(t, err, domain.ErrUpstream)

		list, _, err := f.store.Transactions.List(context.Background(), domain.TxStatusPending, testPage)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("definite rejection marks transaction failed", func(t *testing.T) {
		f.gateway.initErr = &payment.APIError{StatusCode: 400, Message: "Invalid Amount Sent", Err: payment.ErrInvalidRequest}
		_, err := f.settlement.InitiatePayment(context.Background(), req)
		assert.ErrorIs(t, err, domain.ErrUpstream)

		list, _, err := f.store.Transactions.List(context.Background(), domain.TxStatusFailed, testPage)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Contains(t, list[0].FailureReason, "initialize rejected")
	})
}

func TestWebhookSettlesOnceAndReplaysPriorResult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := testutil.Vendor(t, f.db, "alpha")
	b := testutil.Bundle(t, f.db, "1GB", "20")
	testutil.Price(t, f.db, v, b, "25")
	res := initiate(t, f, v, b)

	body, sig := webhook(t, res.Reference, testutil.Dec("25"), nil)
	first, err := f.settlement.HandleConfirmation(ctx, body, sig)
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusSuccess, first.Status)
	require.NotNil(t, first.OrderID)
	assert.False(t, first.Replayed)

	order, err := f.store.Orders.GetByID(ctx, *first.OrderID)
	require.NoError(t, err)
	assert.Equal(t, v.ID, order.VendorID)
	assert.Nil(t, order.SubVendorID)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, "0241234567", order.CustomerPhone)
	assert.True(t, order.AmountPaid.Equal(testutil.Dec("25")))

	second, err := f.settlement.HandleConfirmation(ctx, body, sig)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, *first.OrderID, *second.OrderID)

	assert.EqualValues(t, 1, f.orderCount(t))
	reloaded, err := f.store.Vendors.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Profit.Equal(testutil.Dec("5")), "profit %s", reloaded.Profit)

	tx, err := f.store.Transactions.GetByReference(ctx, res.Reference)
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusSuccess, tx.Status)
	assert.NotNil(t, tx.PaidAt)
	require.NotNil(t, tx.OrderID)
	assert.Equal(t, order.ID, *tx.OrderID)

	assert.Equal(t, 1, f.notify.count("", v.ID, domain.EventOrderCreated))
	assert.Equal(t, 1, f.notify.count(domain.RoleAdmin, 0, domain.EventOrderCreated))
	for _, e := range f.notify.events {
		if e.ev.Type == domain.EventOrderCreated {
			assert.Equal(t, res.Reference, e.ev.Data["reference"])
		}
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	f := newFixture(t)
	body, _ := webhook(t, "jn-x", testutil.Dec("10"), nil)

	_, err := f.settlement.HandleConfirmation(context.Background(), body, "deadbeef")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.settlement.HandleConfirmation(context.Background(), body, "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	var n int64
	require.NoError(t, f.db.Table("payment_transactions").Count(&n).Error)
	assert.Zero(t, n)
	assert.Zero(t, f.gateway.verifyCalls)
}

func TestWebhookIgnoresOtherEvents(t *testing.T) {
	f := newFixture(t)
	body := []byte(`{"event":"transfer.success","data":{"reference":"jn-1"}}`)

	res, err := f.settlement.HandleConfirmation(context.Background(), body, payment.Sign(testSecret, body))
	require.NoError(t, err)
	assert.True(t, res.Ignored)
	assert.Zero(t, f.gateway.verifyCalls)
}

func TestWebhookBusinessRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(f *fixture, v *models.Vendor, b *models.DataBundle, verification *payment.Verification)
		reason string
	}{
		{
			name: "amount mismatch",
			mutate: func(_ *fixture, _ *models.Vendor, _ *models.DataBundle, ver *payment.Verification) {
				ver.Amount = testutil.Dec("20")
			},
			reason: "amount mismatch",
		},
		{
			name: "gateway status not success",
			mutate: func(_ *fixture, _ *models.Vendor, _ *models.DataBundle, ver *payment.Verification) {
				ver.Status = "failed"
			},
			reason: "payment status",
		},
		{
			name: "metadata missing phone",
			mutate: func(_ *fixture, _ *models.Vendor, _ *models.DataBundle, ver *payment.Verification) {
				delete(ver.Metadata, domain.MetaCustomerPhone)
			},
			reason: "incomplete metadata",
		},
		{
			name: "bundle deleted",
			mutate: func(f *fixture, _ *models.Vendor, b *models.DataBundle, _ *payment.Verification) {
				require.NoError(t, f.db.Delete(b).Error)
			},
			reason: "no longer exists",
		},
		{
			name: "price changed",
			mutate: func(f *fixture, v *models.Vendor, b *models.DataBundle, _ *payment.Verification) {
				_, err := f.pricing.SetPrice(context.Background(), v.ID, b.ID, testutil.Dec("30"))
				require.NoError(t, err)
			},
			reason: "price changed",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			v := testutil.Vendor(t, f.db, "alpha")
			b := testutil.Bundle(t, f.db, "1GB", "20")
			testutil.Price(t, f.db, v, b, "25")
			res := initiate(t, f, v, b)
			f.gateway.set(res.Reference, func(ver *payment.Verification) { tc.mutate(f, v, b, ver) })

			body, sig := webhook(t, res.Reference, testutil.Dec("25"), nil)
			out, err := f.settlement.HandleConfirmation(ctx, body, sig)
			assert.ErrorIs(t, err, domain.ErrValidation)
			require.NotNil(t, out)
			assert.Equal(t, domain.TxStatusFailed, out.Status)
			assert.Contains(t, out.Reason, tc.reason)

			tx, err := f.store.Transactions.GetByReference(ctx, res.Reference)
			require.NoError(t, err)
			assert.Equal(t, domain.TxStatusFailed, tx.Status)
			assert.Contains(t, tx.FailureReason, tc.reason)
			assert.Zero(t, f.orderCount(t))

			// A failed reference stays failed on replay.
			again, err := f.settlement.HandleConfirmation(ctx, body, sig)
			require.NoError(t, err)
			assert.True(t, again.Replayed)
			assert.Equal(t, domain.TxStatusFailed, again.Status)
		})
	}
}

func TestWebhookUpstreamErrorLeavesTransactionPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := testutil.Vendor(t, f.db, "alpha")
	b := testutil.Bundle(t, f.db, "1GB", "20")
	res := initiate(t, f, v, b)
	f.gateway.verifyErr = payment.ErrUnreachable

	body, sig := webhook(t, res.Reference, testutil.Dec("20"), nil)
	_, err := f.settlement.HandleConfirmation(ctx, body, sig)
	assert.ErrorIs(t, err, domain.ErrUpstream)

	tx, err := f.store.Transactions.GetByReference(ctx, res.Reference)
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusPending, tx.Status)
	assert.NotNil(t, tx.LastVerifiedAt, "failed attempts still count as a verification")

	// The gateway's retry succeeds once verify works again.
	f.gateway.verifyErr = nil
	out, err := f.settlement.HandleConfirmation(ctx, body, sig)
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusSuccess, out.Status)
}

func TestWebhookForUnknownReferenceCreatesRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := testutil.Vendor(t, f.db, "alpha")
	b := testutil.Bundle(t, f.db, "1GB", "20")
	meta := map[string]interface{}{
		domain.MetaBundleID:      b.ID,
		domain.MetaCustomerPhone: "0551234567",
		domain.MetaVendorID:      v.ID,
	}
	f.gateway.set("ext-1", func(ver *payment.Verification) {
		ver.Amount = testutil.Dec("20")
		ver.Metadata = roundTripMeta(meta)
	})

	body, sig := webhook(t, "ext-1", testutil.Dec("20"), meta)
	out, err := f.settlement.HandleConfirmation(ctx, body, sig)
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusSuccess, out.Status)

	tx, err := f.store.Transactions.GetByReference(ctx, "ext-1")
	require.NoError(t, err)
	assert.True(t, tx.Amount.Equal(testutil.Dec("20")))
	assert.Equal(t, out.OrderID, tx.OrderID)
}

func TestConcurrentDeliveriesCreateOneOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := testutil.Vendor(t, f.db, "alpha")
	b := testutil.Bundle(t, f.db, "1GB", "20")
	testutil.Price(t, f.db, v, b, "25")
	res := initiate(t, f, v, b)
	body, sig := webhook(t, res.Reference, testutil.Dec("25"), nil)

	const deliveries = 8
	var wg sync.WaitGroup
	results := make([]*ConfirmationResult, deliveries)
	errs := make([]error, deliveries)
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.settlement.HandleConfirmation(ctx, body, sig)
		}(i)
	}
	wg.Wait()

	fresh := 0
	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, domain.TxStatusSuccess, results[i].Status)
		if !results[i].Replayed {
			fresh++
		}
	}
	assert.Equal(t, 1, fresh)
	assert.EqualValues(t, 1, f.orderCount(t))

	reloaded, err := f.store.Vendors.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Profit.Equal(testutil.Dec("5")))
}

func TestSubVendorSaleIsOwnedByParent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	parent := testutil.Vendor(t, f.db, "parent")
	sub := testutil.SubVendor(t, f.db, parent, "sub")
	b := testutil.Bundle(t, f.db, "2GB", "30")
	testutil.Price(t, f.db, sub, b, "33.50")
	res := initiate(t, f, sub, b)

	body, sig := webhook(t, res.Reference, testutil.Dec("33.50"), nil)
	out, err := f.settlement.HandleConfirmation(ctx, body, sig)
	require.NoError(t, err)

	order, err := f.store.Orders.GetByID(ctx, *out.OrderID)
	require.NoError(t, err)
	assert.Equal(t, parent.ID, order.VendorID)
	require.NotNil(t, order.SubVendorID)
	assert.Equal(t, sub.ID, *order.SubVendorID)

	seller, err := f.store.Vendors.GetByID(ctx, sub.ID)
	require.NoError(t, err)
	assert.True(t, seller.Profit.Equal(testutil.Dec("3.50")))
	assert.Equal(t, 1, f.notify.count("", parent.ID, domain.EventOrderCreated))
	assert.Equal(t, 1, f.notify.count("", sub.ID, domain.EventOrderCreated))
}

func TestVerifyReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := testutil.Vendor(t, f.db, "alpha")
	b := testutil.Bundle(t, f.db, "1GB", "20")
	res := initiate(t, f, v, b)

	_, err := f.settlement.VerifyReference(ctx, "jn-unknown")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	f.gateway.set(res.Reference, func(ver *payment.Verification) { ver.Status = "ongoing" })
	out, err := f.settlement.VerifyReference(ctx, res.Reference)
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusPending, out.Status)
	tx, err := f.store.Transactions.GetByReference(ctx, res.Reference)
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusPending, tx.Status)
	assert.NotNil(t, tx.LastVerifiedAt)

	f.gateway.set(res.Reference, func(ver *payment.Verification) { ver.Status = payment.StatusSuccess })
	out, err = f.settlement.VerifyReference(ctx, res.Reference)
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusSuccess, out.Status)

	again, err := f.settlement.VerifyReference(ctx, res.Reference)
	require.NoError(t, err)
	assert.True(t, again.Replayed)
	assert.EqualValues(t, 1, f.orderCount(t))
}

// Sale, completion, withdrawal and a late webhook replay keep the books balanced.
func TestSaleToPayoutLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := Actor{ID: 1, IP: "127.0.0.1"}
	v := testutil.Vendor(t, f.db, "alpha")
	b := testutil.Bundle(t, f.db, "1GB", "20")
	_, err := f.pricing.SetPrice(ctx, v.ID, b.ID, testutil.Dec("25"))
	require.NoError(t, err)

	res := initiate(t, f, v, b)
	body, sig := webhook(t, res.Reference, testutil.Dec("25"), nil)
	out, err := f.settlement.HandleConfirmation(ctx, body, sig)
	require.NoError(t, err)

	bal, err := f.ledger.ComputeAvailableBalance(ctx, v.ID)
	require.NoError(t, err)
	assert.True(t, bal.IsZero(), "pending orders do not count")

	_, err = f.orders.UpdateStatus(ctx, *out.OrderID, domain.OrderStatusComplete, admin)
	require.NoError(t, err)
	bal, err = f.ledger.ComputeAvailableBalance(ctx, v.ID)
	require.NoError(t, err)
	assert.True(t, bal.Equal(testutil.Dec("5")))

	w, err := f.ledger.RequestWithdrawal(ctx, v.ID, testutil.Dec("5"), "0241234567")
	require.NoError(t, err)
	_, err = f.ledger.ProcessWithdrawal(ctx, w.ID, domain.WithdrawalStatusApproved, admin)
	require.NoError(t, err)

	bal, err = f.ledger.ComputeAvailableBalance(ctx, v.ID)
	require.NoError(t, err)
	assert.True(t, bal.IsZero())

	replay, err := f.settlement.HandleConfirmation(ctx, body, sig)
	require.NoError(t, err)
	assert.True(t, replay.Replayed)

	reloaded, err := f.store.Vendors.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Profit.Equal(testutil.Dec("5")))
	bal, err = f.ledger.ComputeAvailableBalance(ctx, v.ID)
	require.NoError(t, err)
	assert.True(t, bal.IsZero())

	_, err = f.ledger.RequestWithdrawal(ctx, v.ID, testutil.Dec("0.01"), "0241234567")
	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Equal(t, "0.00", de.Extra["availableBalance"])
}
