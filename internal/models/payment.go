package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PaymentTransaction tracks one gateway reference from initiation to settlement.
type PaymentTransaction struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Reference      string          `gorm:"size:100;uniqueIndex;not null" json:"reference"`
	OrderID        *uint           `gorm:"index" json:"orderId"`
	VendorID       *uint           `gorm:"index" json:"vendorId"`
	DataBundleID   *uint           `json:"bundleId"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status         string          `gorm:"size:20;not null;index" json:"status"` // pending, success, failed
	FailureReason  string          `gorm:"size:255" json:"failureReason,omitempty"`
	Metadata       datatypes.JSON  `json:"metadata"`
	PaidAt         *time.Time      `json:"paidAt"`
	LastVerifiedAt *time.Time      `json:"lastVerifiedAt"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

func (PaymentTransaction) TableName() string { return "payment_transactions" }
