package repository

import (
	"context"
	"time"

	"jndata/internal/domain"
	"jndata/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type WithdrawalRepository struct {
	db *gorm.DB
}

func NewWithdrawalRepository(db *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

func (r *WithdrawalRepository) Create(ctx context.Context, w *models.Withdrawal) error {
	return r.db.WithContext(ctx).Create(w).Error
}

func (r *WithdrawalRepository) GetByID(ctx context.Context, id uint) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := r.db.WithContext(ctx).First(&w, id).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// ApprovedAmounts lists the amount of every approved withdrawal made by any of vendorIDs.
func (r *WithdrawalRepository) ApprovedAmounts(ctx context.Context, vendorIDs []uint) ([]decimal.Decimal, error) {
	return r.amounts(ctx, vendorIDs, domain.WithdrawalStatusApproved)
}

// PendingAmounts lists the amount of every withdrawal still awaiting a decision.
func (r *WithdrawalRepository) PendingAmounts(ctx context.Context, vendorIDs []uint) ([]decimal.Decimal, error) {
	return r.amounts(ctx, vendorIDs, domain.WithdrawalStatusPending)
}

func (r *WithdrawalRepository) amounts(ctx context.Context, vendorIDs []uint, status string) ([]decimal.Decimal, error) {
	var amounts []decimal.Decimal
	if len(vendorIDs) == 0 {
		return amounts, nil
	}
	err := r.db.WithContext(ctx).Model(&models.Withdrawal{}).
		Where("vendor_id IN ? AND status = ?", vendorIDs, status).
		Pluck("amount_requested", &amounts).Error
	return amounts, err
}

// Settle moves a pending withdrawal to its final status and reports whether it did.
func (r *WithdrawalRepository) Settle(ctx context.Context, id uint, status string, adminID uint, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Withdrawal{}).
		Where("id = ? AND status = ?", id, domain.WithdrawalStatusPending).
		Updates(map[string]interface{}{
			"status":       status,
			"processed_at": at,
			"processed_by": adminID,
		})
	return res.RowsAffected == 1, res.Error
}

func (r *WithdrawalRepository) ListByVendor(ctx context.Context, vendorID uint, page Page) ([]models.Withdrawal, int64, error) {
	page = page.normalize()
	q := r.db.WithContext(ctx).Model(&models.Withdrawal{}).Where("vendor_id = ?", vendorID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Withdrawal
	err := q.Order("requested_at DESC").Limit(page.Limit).Offset(page.Offset).Find(&list).Error
	return list, total, err
}

func (r *WithdrawalRepository) List(ctx context.Context, status string, page Page) ([]models.Withdrawal, int64, error) {
	page = page.normalize()
	q := r.db.WithContext(ctx).Model(&models.Withdrawal{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Withdrawal
	err := q.Preload("Vendor").Order("requested_at DESC").Limit(page.Limit).Offset(page.Offset).Find(&list).Error
	return list, total, err
}
