package repository

import (
	"context"

	"jndata/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PriceRepository struct {
	db *gorm.DB
}

func NewPriceRepository(db *gorm.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

func (r *PriceRepository) Get(ctx context.Context, vendorID, bundleID uint) (*models.VendorPrice, error) {
	var p models.VendorPrice
	err := r.db.WithContext(ctx).Where("vendor_id = ? AND data_bundle_id = ?", vendorID, bundleID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert writes the price for (vendor, bundle); the last write wins.
func (r *PriceRepository) Upsert(ctx context.Context, p *models.VendorPrice) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "vendor_id"}, {Name: "data_bundle_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"price", "updated_at"}),
	}).Create(p).Error
}

func (r *PriceRepository) ListByVendor(ctx context.Context, vendorID uint) ([]models.VendorPrice, error) {
	var list []models.VendorPrice
	err := r.db.WithContext(ctx).Where("vendor_id = ?", vendorID).Find(&list).Error
	return list, err
}
