package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Store groups the repositories so a unit of work can run against one transaction.
type Store struct {
	db           *gorm.DB
	Admins       *AdminRepository
	Vendors      *VendorRepository
	Bundles      *BundleRepository
	Prices       *PriceRepository
	Orders       *OrderRepository
	Transactions *TransactionRepository
	Withdrawals  *WithdrawalRepository
	Notify       *NotificationRepository
	Audit        *AuditLogRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:           db,
		Admins:       NewAdminRepository(db),
		Vendors:      NewVendorRepository(db),
		Bundles:      NewBundleRepository(db),
		Prices:       NewPriceRepository(db),
		Orders:       NewOrderRepository(db),
		Transactions: NewTransactionRepository(db),
		Withdrawals:  NewWithdrawalRepository(db),
		Notify:       NewNotificationRepository(db),
		Audit:        NewAuditLogRepository(db),
	}
}

// Transaction runs fn with a Store bound to a single database transaction.
// Returning an error from fn rolls everything back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *gorm.DB { return s.db }

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// Page bounds list queries.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) normalize() Page {
	if p.Limit <= 0 || p.Limit > 100 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
