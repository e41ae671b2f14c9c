// Package testutil provides an in-memory database and fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"jndata/config"
	"jndata/internal/database"
	"jndata/internal/domain"
	"jndata/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB opens a private in-memory sqlite database with the schema migrated.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.NewDB(&config.DatabaseConfig{
		Driver:          "sqlite",
		DSN:             fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString()),
		ConnMaxLifetime: time.Hour,
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Vendor inserts an approved top-level vendor.
func Vendor(t testing.TB, db *gorm.DB, name string) *models.Vendor {
	t.Helper()
	v := &models.Vendor{
		Name:         name,
		Email:        uuid.NewString()[:8] + "@" + name + ".test",
		Phone:        "0241234567",
		PasswordHash: "x",
		VendorLink:   domain.VendorLinkPrefix + uuid.NewString(),
		Approved:     true,
	}
	require.NoError(t, db.Create(v).Error)
	return v
}

// SubVendor inserts an approved sub-vendor under parent.
func SubVendor(t testing.TB, db *gorm.DB, parent *models.Vendor, name string) *models.Vendor {
	t.Helper()
	v := Vendor(t, db, name)
	v.ParentVendorID = &parent.ID
	require.NoError(t, db.Save(v).Error)
	return v
}

func Bundle(t testing.TB, db *gorm.DB, name, basePrice string) *models.DataBundle {
	t.Helper()
	b := &models.DataBundle{Name: name, Network: "MTN", DataAmount: name, BasePrice: Dec(basePrice)}
	require.NoError(t, db.Create(b).Error)
	return b
}

func Price(t testing.TB, db *gorm.DB, vendor *models.Vendor, bundle *models.DataBundle, price string) {
	t.Helper()
	require.NoError(t, db.Create(&models.VendorPrice{VendorID: vendor.ID, DataBundleID: bundle.ID, Price: Dec(price)}).Error)
}

// CompleteOrder inserts a complete order sold by seller.
func CompleteOrder(t testing.TB, db *gorm.DB, seller *models.Vendor, bundle *models.DataBundle, amount string) *models.Order {
	t.Helper()
	o := &models.Order{
		VendorID:      seller.RootID(),
		DataBundleID:  bundle.ID,
		CustomerPhone: "0241234567",
		AmountPaid:    Dec(amount),
		Status:        domain.OrderStatusComplete,
	}
	if seller.IsSubVendor() {
		id := seller.ID
		o.SubVendorID = &id
	}
	require.NoError(t, db.Create(o).Error)
	return o
}

func Withdrawal(t testing.TB, db *gorm.DB, vendor *models.Vendor, amount, status string) *models.Withdrawal {
	t.Helper()
	w := &models.Withdrawal{
		VendorID:          vendor.ID,
		AmountRequested:   Dec(amount),
		MobileMoneyNumber: "0241234567",
		Status:            status,
		RequestedAt:       time.Now(),
	}
	require.NoError(t, db.Create(w).Error)
	return w
}
