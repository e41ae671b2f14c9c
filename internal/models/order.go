package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	VendorID      uint            `gorm:"not null;index" json:"vendorId"` // top-level owner
	SubVendorID   *uint           `gorm:"index" json:"subVendorId"`       // selling sub-vendor, if any
	DataBundleID  uint            `gorm:"not null;index" json:"bundleId"`
	CustomerPhone string          `gorm:"size:20;not null" json:"customerPhone"`
	AmountPaid    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amountPaid"`
	Status        string          `gorm:"size:20;not null;index" json:"status"` // pending, complete, cancelled
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`

	DataBundle *DataBundle `gorm:"foreignKey:DataBundleID" json:"dataBundle,omitempty"`
}

func (Order) TableName() string { return "orders" }

// SellerID is the vendor whose storefront made the sale.
func (o *Order) SellerID() uint {
	if o.SubVendorID != nil {
		return *o.SubVendorID
	}
	return o.VendorID
}
