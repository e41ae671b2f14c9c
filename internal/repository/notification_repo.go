package repository

import (
	"context"
	"time"

	"jndata/internal/models"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NotificationRepository) ListByVendorID(ctx context.Context, vendorID uint, unreadOnly bool, page Page) ([]models.Notification, error) {
	page = page.normalize()
	q := r.db.WithContext(ctx).Where("vendor_id = ?", vendorID)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	var list []models.Notification
	err := q.Order("created_at DESC").Limit(page.Limit).Offset(page.Offset).Find(&list).Error
	return list, err
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, vendorID uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND vendor_id = ?", id, vendorID).
		Update("read_at", time.Now())
	return res.RowsAffected == 1, res.Error
}
