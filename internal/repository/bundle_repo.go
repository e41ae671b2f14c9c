package repository

import (
	"context"

	"jndata/internal/models"

	"gorm.io/gorm"
)

type BundleRepository struct {
	db *gorm.DB
}

func NewBundleRepository(db *gorm.DB) *BundleRepository {
	return &BundleRepository{db: db}
}

func (r *BundleRepository) Create(ctx context.Context, b *models.DataBundle) error {
	return r.db.WithContext(ctx).Create(b).Error
}

// GetByID does not return soft-deleted bundles.
func (r *BundleRepository) GetByID(ctx context.Context, id uint) (*models.DataBundle, error) {
	var b models.DataBundle
	err := r.db.WithContext(ctx).First(&b, id).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BundleRepository) Update(ctx context.Context, b *models.DataBundle) error {
	return r.db.WithContext(ctx).Save(b).Error
}

func (r *BundleRepository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.DataBundle{}, id)
	return res.RowsAffected, res.Error
}

func (r *BundleRepository) List(ctx context.Context, network string) ([]models.DataBundle, error) {
	q := r.db.WithContext(ctx).Model(&models.DataBundle{})
	if network != "" {
		q = q.Where("network = ?", network)
	}
	var list []models.DataBundle
	err := q.Order("network ASC, base_price ASC").Find(&list).Error
	return list, err
}
