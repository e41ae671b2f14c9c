package repository

import (
	"context"

	"jndata/internal/models"

	"gorm.io/gorm"
)

type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Create(ctx context.Context, log *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *AuditLogRepository) List(ctx context.Context, resource string, page Page) ([]models.AuditLog, error) {
	page = page.normalize()
	q := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if resource != "" {
		q = q.Where("resource = ?", resource)
	}
	var list []models.AuditLog
	err := q.Order("created_at DESC").Limit(page.Limit).Offset(page.Offset).Find(&list).Error
	return list, err
}
