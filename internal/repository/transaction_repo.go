package repository

import (
	"context"
	"time"
	"unicode/utf8"

	"jndata/internal/domain"
	"jndata/internal/models"

	"gorm.io/gorm"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create inserts a transaction. A reference that already exists yields gorm.ErrDuplicatedKey.
func (r *TransactionRepository) Create(ctx context.Context, t *models.PaymentTransaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TransactionRepository) GetByReference(ctx context.Context, ref string) (*models.PaymentTransaction, error) {
	var t models.PaymentTransaction
	err := r.db.WithContext(ctx).Where("reference = ?", ref).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Claim moves a pending transaction to success. Only one caller can ever win.
func (r *TransactionRepository) Claim(ctx context.Context, ref string, paidAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.PaymentTransaction{}).
		Where("reference = ? AND status = ?", ref, domain.TxStatusPending).
		Updates(map[string]interface{}{
			"status":           domain.TxStatusSuccess,
			"paid_at":          paidAt,
			"last_verified_at": time.Now(),
		})
	return res.RowsAffected == 1, res.Error
}

// MarkFailed moves a pending transaction to failed with a reason.
func (r *TransactionRepository) MarkFailed(ctx context.Context, ref, reason string) (bool, error) {
	reason = truncateRunes(reason, 255)
	res := r.db.WithContext(ctx).Model(&models.PaymentTransaction{}).
		Where("reference = ? AND status = ?", ref, domain.TxStatusPending).
		Updates(map[string]interface{}{
			"status":           domain.TxStatusFailed,
			"failure_reason":   reason,
			"last_verified_at": time.Now(),
		})
	return res.RowsAffected == 1, res.Error
}

// Attach links a settled transaction to its order and the vendor and bundle it paid for.
func (r *TransactionRepository) Attach(ctx context.Context, id, orderID, vendorID, bundleID uint) error {
	return r.db.WithContext(ctx).Model(&models.PaymentTransaction{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"order_id":       orderID,
			"vendor_id":      vendorID,
			"data_bundle_id": bundleID,
		}).Error
}

func (r *TransactionRepository) TouchVerified(ctx context.Context, ref string) error {
	return r.db.WithContext(ctx).Model(&models.PaymentTransaction{}).Where("reference = ?", ref).Update("last_verified_at", time.Now()).Error
}

// ListStalePending returns pending transactions created before cutoff, least recently
// verified first, so rows the gateway keeps reporting as pending rotate to the back.
func (r *TransactionRepository) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.PaymentTransaction, error) {
	var list []models.PaymentTransaction
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", domain.TxStatusPending, cutoff).
		Order("COALESCE(last_verified_at, created_at) ASC, id ASC").
		Limit(limit).
		Find(&list).Error
	return list, err
}

func (r *TransactionRepository) List(ctx context.Context, status string, page Page) ([]models.PaymentTransaction, int64, error) {
	page = page.normalize()
	q := r.db.WithContext(ctx).Model(&models.PaymentTransaction{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.PaymentTransaction
	err := q.Order("created_at DESC").Limit(page.Limit).Offset(page.Offset).Find(&list).Error
	return list, total, err
}

// truncateRunes cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
