package repository

import (
	"context"
	"time"

	"jndata/internal/domain"
	"jndata/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

type OrderFilter struct {
	VendorIDs []uint // matches the owning vendor or the selling sub-vendor
	Status    string
	From      *time.Time
	To        *time.Time
	Page      Page
}

// ProfitLine is the pair needed to derive one order's profit.
type ProfitLine struct {
	AmountPaid decimal.Decimal
	BasePrice  decimal.Decimal
}

func (r *OrderRepository) Create(ctx context.Context, o *models.Order) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *OrderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).Preload("DataBundle", func(db *gorm.DB) *gorm.DB {
		return db.Unscoped()
	}).First(&o, id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// TransitionStatus moves an order from one status to another and reports whether it did.
func (r *OrderRepository) TransitionStatus(ctx context.Context, id uint, from, to string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected == 1, res.Error
}

func (r *OrderRepository) List(ctx context.Context, f OrderFilter) ([]models.Order, int64, error) {
	page := f.Page.normalize()
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if len(f.VendorIDs) > 0 {
		q = q.Where("(vendor_id IN ? OR sub_vendor_id IN ?)", f.VendorIDs, f.VendorIDs)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Order
	err := q.Preload("DataBundle", func(db *gorm.DB) *gorm.DB {
		return db.Unscoped()
	}).Order("created_at DESC").Limit(page.Limit).Offset(page.Offset).Find(&list).Error
	return list, total, err
}

// CompletedProfitLines returns amount paid and bundle base price for every complete order
// owned or sold by any of vendorIDs. Deleted bundles are included.
func (r *OrderRepository) CompletedProfitLines(ctx context.Context, vendorIDs []uint) ([]ProfitLine, error) {
	var lines []ProfitLine
	if len(vendorIDs) == 0 {
		return lines, nil
	}
	err := r.db.WithContext(ctx).Table("orders").
		Select("orders.amount_paid AS amount_paid, data_bundles.base_price AS base_price").
		Joins("JOIN data_bundles ON data_bundles.id = orders.data_bundle_id").
		Where("orders.status = ?", domain.OrderStatusComplete).
		Where("(orders.vendor_id IN ? OR orders.sub_vendor_id IN ?)", vendorIDs, vendorIDs).
		Scan(&lines).Error
	return lines, err
}

// StatusCounts counts orders owned or sold by any of vendorIDs, keyed by status.
func (r *OrderRepository) StatusCounts(ctx context.Context, vendorIDs []uint) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Where("(vendor_id IN ? OR sub_vendor_id IN ?)", vendorIDs, vendorIDs).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// AmountsPaid lists what was paid for every order owned or sold by any of vendorIDs.
func (r *OrderRepository) AmountsPaid(ctx context.Context, vendorIDs []uint) ([]decimal.Decimal, error) {
	var amounts []decimal.Decimal
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("(vendor_id IN ? OR sub_vendor_id IN ?)", vendorIDs, vendorIDs).
		Pluck("amount_paid", &amounts).Error
	return amounts, err
}
