package repository

import (
	"context"

	"jndata/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VendorRepository struct {
	db *gorm.DB
}

func NewVendorRepository(db *gorm.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

func (r *VendorRepository) Create(ctx context.Context, v *models.Vendor) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *VendorRepository) GetByID(ctx context.Context, id uint) (*models.Vendor, error) {
	var v models.Vendor
	err := r.db.WithContext(ctx).First(&v, id).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetByIDForUpdate locks the vendor row until the surrounding transaction ends.
func (r *VendorRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.Vendor, error) {
	var v models.Vendor
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&v, id).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VendorRepository) GetByEmail(ctx context.Context, email string) (*models.Vendor, error) {
	var v models.Vendor
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VendorRepository) GetByLink(ctx context.Context, link string) (*models.Vendor, error) {
	var v models.Vendor
	err := r.db.WithContext(ctx).Where("vendor_link = ?", link).First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VendorRepository) Update(ctx context.Context, v *models.Vendor) error {
	return r.db.WithContext(ctx).Save(v).Error
}

func (r *VendorRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Vendor{}).Where("id = ?", id).Updates(fields).Error
}

// AddProfit increments the stored profit counter without a read-modify-write.
func (r *VendorRepository) AddProfit(ctx context.Context, id uint, delta decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&models.Vendor{}).Where("id = ?", id).
		Update("profit", gorm.Expr("profit + CAST(? AS DECIMAL(12,2))", delta.StringFixed(2))).Error
}

func (r *VendorRepository) ListChildren(ctx context.Context, parentID uint) ([]models.Vendor, error) {
	var list []models.Vendor
	err := r.db.WithContext(ctx).Where("parent_vendor_id = ?", parentID).Order("created_at DESC").Find(&list).Error
	return list, err
}

// TreeIDs returns the root vendor and every sub-vendor ever created under it.
func (r *VendorRepository) TreeIDs(ctx context.Context, rootID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Unscoped().Model(&models.Vendor{}).
		Where("id = ? OR parent_vendor_id = ?", rootID, rootID).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *VendorRepository) List(ctx context.Context, approved *bool, page Page) ([]models.Vendor, int64, error) {
	page = page.normalize()
	q := r.db.WithContext(ctx).Model(&models.Vendor{})
	if approved != nil {
		q = q.Where("approved = ?", *approved)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Vendor
	err := q.Order("created_at DESC").Limit(page.Limit).Offset(page.Offset).Find(&list).Error
	return list, total, err
}
