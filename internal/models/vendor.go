package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Vendor struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Name           string          `gorm:"size:255;not null" json:"name"`
	Email          string          `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Phone          string          `gorm:"size:20" json:"phone"`
	PasswordHash   string          `gorm:"size:255;not null" json:"-"`
	VendorLink     string          `gorm:"uniqueIndex;size:64;not null" json:"vendorLink"`
	Approved       bool            `gorm:"not null;default:false;index" json:"isApproved"`
	ParentVendorID *uint           `gorm:"index" json:"parentVendorId"` // nil for top-level vendors
	Profit         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"profit"`
	FCMToken       string          `gorm:"size:512" json:"-"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Vendor) TableName() string { return "vendors" }

func (v *Vendor) IsSubVendor() bool { return v.ParentVendorID != nil }

// RootID is the top-level vendor this vendor's sales and balance roll up to.
func (v *Vendor) RootID() uint {
	if v.ParentVendorID != nil {
		return *v.ParentVendorID
	}
	return v.ID
}
