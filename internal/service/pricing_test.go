package service

import (
	"context"
	"errors"
	"testing"

	"jndata/internal/domain"
	"jndata/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := testutil.Vendor(t, f.db, "alpha")
	b := testutil.Bundle(t, f.db, "1GB", "20")

	price, err := f.pricing.ResolvePrice(ctx, v.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, price.Equal(testutil.Dec("20")), "falls back to base price")

	testutil.Price(t, f.db, v, b, "24.50")
	price, err = f.pricing.ResolvePrice(ctx, v.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, price.Equal(testutil.Dec("24.50")))

	_, err = f.pricing.ResolvePrice(ctx, v.ID, 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSubVendorDoesNotInheritParentPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	parent := testutil.Vendor(t, f.db, "parent")
	sub := testutil.SubVendor(t, f.db, parent, "sub")
	b := testutil.Bundle(t, f.db, "1GB", "20")
	testutil.Price(t, f.db, parent, b, "28")

	price, err := f.pricing.ResolvePrice(ctx, sub.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, price.Equal(testutil.Dec("20")))
}

func TestSetPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := testutil.Vendor(t, f.db, "alpha")
	b := testutil.Bundle(t, f.db, "1GB", "20")

	_, err := f.pricing.SetPrice(ctx, v.ID, b.ID, testutil.Dec("19.99"))
	var de *domain.Error
	require.True(t, errors.As(err, &de))
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "20.00", de.Extra["basePrice"])

	vp, err := f.pricing.SetPrice(ctx, v.ID, b.ID, testutil.Dec("20"))
	require.NoError(t, err)
	assert.True(t, vp.Price.Equal(testutil.Dec("20")))

	// A second call replaces the override instead of adding a row.
	_, err = f.pricing.SetPrice(ctx, v.ID, b.ID, testutil.Dec("22.456"))
	require.NoError(t, err)
	price, err := f.pricing.ResolvePrice(ctx, v.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, price.Equal(testutil.Dec("22.46")))

	var n int64
	require.NoError(t, f.db.Table("vendor_prices").Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestSetPricesReportsEachItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := testutil.Vendor(t, f.db, "alpha")
	small := testutil.Bundle(t, f.db, "1GB", "20")
	large := testutil.Bundle(t, f.db, "5GB", "80")

	results, err := f.pricing.SetPrices(ctx, v.ID, []PriceUpdate{
		{BundleID: small.ID, Price: testutil.Dec("25")},
		{BundleID: large.ID, Price: testutil.Dec("70")},
		{BundleID: 9999, Price: testutil.Dec("10")},
		{BundleID: small.ID, Price: testutil.Dec("0")},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
	require.Len(t, results, 4)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Contains(t, results[1].Error, "base price")
	assert.False(t, results[2].Success)
	assert.False(t, results[3].Success)

	price, err := f.pricing.ResolvePrice(ctx, v.ID, small.ID)
	require.NoError(t, err)
	assert.True(t, price.Equal(testutil.Dec("25")), "valid items are kept")

	_, err = f.pricing.SetPrices(ctx, 9999, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStorefrontUsesEffectivePrices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := testutil.Vendor(t, f.db, "alpha")
	small := testutil.Bundle(t, f.db, "1GB", "20")
	large := testutil.Bundle(t, f.db, "5GB", "80")
	testutil.Price(t, f.db, v, large, "90")

	items, err := f.pricing.Storefront(ctx, v)
	require.NoError(t, err)
	require.Len(t, items, 2)
	prices := map[uint]string{}
	for _, it := range items {
		prices[it.ID] = it.Price.StringFixed(2)
	}
	assert.Equal(t, "20.00", prices[small.ID])
	assert.Equal(t, "90.00", prices[large.ID])
}
