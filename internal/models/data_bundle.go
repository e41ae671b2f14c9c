package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DataBundle struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	Name       string          `gorm:"size:255;not null" json:"name"`
	Network    string          `gorm:"size:50;not null;index" json:"network"`
	DataAmount string          `gorm:"size:50;not null" json:"dataAmount"`
	BasePrice  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"basePrice"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
	DeletedAt  gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (DataBundle) TableName() string { return "data_bundles" }

// VendorPrice is a vendor's selling price for one bundle. Never below the bundle's base price.
type VendorPrice struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	VendorID     uint            `gorm:"not null;uniqueIndex:idx_vendor_bundle" json:"vendorId"`
	DataBundleID uint            `gorm:"not null;uniqueIndex:idx_vendor_bundle" json:"bundleId"`
	Price        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func (VendorPrice) TableName() string { return "vendor_prices" }
