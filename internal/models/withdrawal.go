package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Withdrawal struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	VendorID          uint            `gorm:"not null;index" json:"vendorId"`
	AmountRequested   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amountRequested"`
	MobileMoneyNumber string          `gorm:"size:20;not null" json:"mobileMoneyNumber"`
	Status            string          `gorm:"size:20;not null;index" json:"status"` // pending, approved, rejected
	RequestedAt       time.Time       `gorm:"not null" json:"requestedAt"`
	ProcessedAt       *time.Time      `json:"processedAt"`
	ProcessedBy       *uint           `json:"processedBy,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`

	Vendor *Vendor `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
}

func (Withdrawal) TableName() string {
	return "withdrawals"
}
