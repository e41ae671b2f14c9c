package service

import (
	"context"
	"strings"

	"jndata/internal/domain"
	"jndata/internal/models"
	"jndata/internal/repository"
	"jndata/pkg/money"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CatalogService manages the data bundle catalog.
type CatalogService struct {
	store *repository.Store
	log   *zap.Logger
}

func NewCatalogService(store *repository.Store, log *zap.Logger) *CatalogService {
	return &CatalogService{store: store, log: log}
}

type BundleInput struct {
	Name       string
	Network    string
	DataAmount string
	BasePrice  decimal.Decimal
}

func (in BundleInput) validate() error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Network) == "" || strings.TrimSpace(in.DataAmount) == "" {
		return domain.Validation("name, network and dataAmount are required")
	}
	if !in.BasePrice.IsPositive() {
		return domain.Validation("basePrice must be greater than zero")
	}
	return nil
}

func (s *CatalogService) List(ctx context.Context, network string) ([]models.DataBundle, error) {
	list, err := s.store.Bundles.List(ctx, strings.TrimSpace(network))
	if err != nil {
		return nil, domain.Internal(err, "list bundles")
	}
	return list, nil
}

func (s *CatalogService) Get(ctx context.Context, id uint) (*models.DataBundle, error) {
	b, err := s.store.Bundles.GetByID(ctx, id)
	if err != nil {
		return nil, bundleLookupError(err, id)
	}
	return b, nil
}

func (s *CatalogService) Create(ctx context.Context, in BundleInput, actor Actor) (*models.DataBundle, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	b := &models.DataBundle{
		Name:       strings.TrimSpace(in.Name),
		Network:    strings.TrimSpace(in.Network),
		DataAmount: strings.TrimSpace(in.DataAmount),
		BasePrice:  money.Normalize(in.BasePrice),
	}
	err := s.store.Transaction(ctx, func(st *repository.Store) error {
		if err := st.Bundles.Create(ctx, b); err != nil {
			return err
		}
		return st.Audit.Create(ctx, auditEntry(actor, "bundle_create", "data_bundle", b.ID, map[string]interface{}{
			"basePrice": b.BasePrice.StringFixed(2),
		}))
	})
	if err != nil {
		return nil, wrapInternal(err, "create bundle")
	}
	return b, nil
}

// Update edits a bundle. Existing vendor prices below a raised base price are left as they are;
// settlement re-resolves the price and the floor is enforced on the next price write.
func (s *CatalogService) Update(ctx context.Context, id uint, in BundleInput, actor Actor) (*models.DataBundle, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := b.BasePrice
	b.Name = strings.TrimSpace(in.Name)
	b.Network = strings.TrimSpace(in.Network)
	b.DataAmount = strings.TrimSpace(in.DataAmount)
	b.BasePrice = money.Normalize(in.BasePrice)
	err = s.store.Transaction(ctx, func(st *repository.Store) error {
		if err := st.Bundles.Update(ctx, b); err != nil {
			return err
		}
		return st.Audit.Create(ctx, auditEntry(actor, "bundle_update", "data_bundle", b.ID, map[string]interface{}{
			"previousBasePrice": money.Normalize(prev).StringFixed(2),
			"basePrice":         b.BasePrice.StringFixed(2),
		}))
	})
	if err != nil {
		return nil, wrapInternal(err, "update bundle")
	}
	return b, nil
}

// Delete soft-deletes a bundle so completed orders keep their base price for profit.
func (s *CatalogService) Delete(ctx context.Context, id uint, actor Actor) error {
	err := s.store.Transaction(ctx, func(st *repository.Store) error {
		n, err := st.Bundles.Delete(ctx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.NotFound("data bundle %d not found", id)
		}
		return st.Audit.Create(ctx, auditEntry(actor, "bundle_delete", "data_bundle", id, nil))
	})
	if err != nil {
		return wrapInternal(err, "delete bundle")
	}
	s.log.Info("bundle deleted", zap.Uint("bundle_id", id), zap.Uint("admin_id", actor.ID))
	return nil
}
