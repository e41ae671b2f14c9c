package service

import (
	"context"

	"jndata/internal/domain"
	"jndata/internal/models"
	"jndata/internal/repository"
	"jndata/pkg/money"

	"github.com/shopspring/decimal"
)

// PricingService answers what a vendor charges for a bundle and guards the base-price floor.
type PricingService struct {
	store *repository.Store
}

func NewPricingService(store *repository.Store) *PricingService {
	return &PricingService{store: store}
}

// ResolvePrice returns the vendor's override for the bundle, or the bundle's base price.
func (s *PricingService) ResolvePrice(ctx context.Context, vendorID, bundleID uint) (decimal.Decimal, error) {
	bundle, err := s.store.Bundles.GetByID(ctx, bundleID)
	if err != nil {
		return decimal.Zero, bundleLookupError(err, bundleID)
	}
	return s.priceFor(ctx, vendorID, bundle)
}

func (s *PricingService) priceFor(ctx context.Context, vendorID uint, bundle *models.DataBundle) (decimal.Decimal, error) {
	vp, err := s.store.Prices.Get(ctx, vendorID, bundle.ID)
	if err == nil {
		return money.Normalize(vp.Price), nil
	}
	if !repository.IsNotFound(err) {
		return decimal.Zero, domain.Internal(err, "load vendor price")
	}
	return money.Normalize(bundle.BasePrice), nil
}

// PriceUpdate is one requested override.
type PriceUpdate struct {
	BundleID uint            `json:"bundleId"`
	Price    decimal.Decimal `json:"price"`
}

// PriceResult reports the outcome of one PriceUpdate.
type PriceResult struct {
	BundleID uint             `json:"bundleId"`
	Success  bool             `json:"success"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// SetPrice stores the vendor's price for a bundle. Prices below the base price are rejected.
func (s *PricingService) SetPrice(ctx context.Context, vendorID, bundleID uint, price decimal.Decimal) (*models.VendorPrice, error) {
	bundle, err := s.store.Bundles.GetByID(ctx, bundleID)
	if err != nil {
		return nil, bundleLookupError(err, bundleID)
	}
	price = money.Normalize(price)
	base := money.Normalize(bundle.BasePrice)
	if price.LessThan(base) {
		e := domain.Validation("price for %s cannot be less than base price %s", bundle.Name, base.StringFixed(2))
		e.Extra = map[string]interface{}{"bundleId": bundle.ID, "basePrice": base.StringFixed(2)}
		return nil, e
	}
	vp := &models.VendorPrice{VendorID: vendorID, DataBundleID: bundleID, Price: price}
	if err := s.store.Prices.Upsert(ctx, vp); err != nil {
		return nil, domain.Internal(err, "save vendor price")
	}
	return vp, nil
}

// SetPrices applies each update independently. The error is a validation error when any item failed.
func (s *PricingService) SetPrices(ctx context.Context, vendorID uint, updates []PriceUpdate) ([]PriceResult, error) {
	if _, err := s.store.Vendors.GetByID(ctx, vendorID); err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.NotFound("vendor %d not found", vendorID)
		}
		return nil, domain.Internal(err, "load vendor")
	}
	results := make([]PriceResult, 0, len(updates))
	failed := 0
	for _, u := range updates {
		if u.BundleID == 0 || !u.Price.IsPositive() {
			results = append(results, PriceResult{BundleID: u.BundleID, Error: "invalid price data"})
			failed++
			continue
		}
		vp, err := s.SetPrice(ctx, vendorID, u.BundleID, u.Price)
		if err != nil {
			results = append(results, PriceResult{BundleID: u.BundleID, Error: publicMessage(err)})
			failed++
			continue
		}
		p := vp.Price
		results = append(results, PriceResult{BundleID: u.BundleID, Success: true, Price: &p})
	}
	if failed > 0 {
		e := domain.Validation("%d of %d price updates failed", failed, len(updates))
		return results, e
	}
	return results, nil
}

// StorefrontBundle is a bundle with the price a given vendor charges for it.
type StorefrontBundle struct {
	models.DataBundle
	Price decimal.Decimal `json:"price"`
}

// Storefront lists every active bundle with the vendor's effective price.
func (s *PricingService) Storefront(ctx context.Context, vendor *models.Vendor) ([]StorefrontBundle, error) {
	bundles, err := s.store.Bundles.List(ctx, "")
	if err != nil {
		return nil, domain.Internal(err, "list bundles")
	}
	out := make([]StorefrontBundle, 0, len(bundles))
	for i := range bundles {
		price, err := s.priceFor(ctx, vendor.ID, &bundles[i])
		if err != nil {
			return nil, err
		}
		out = append(out, StorefrontBundle{DataBundle: bundles[i], Price: price})
	}
	return out, nil
}

func bundleLookupError(err error, bundleID uint) error {
	if repository.IsNotFound(err) {
		return domain.NotFound("data bundle %d not found", bundleID)
	}
	return domain.Internal(err, "load data bundle")
}
