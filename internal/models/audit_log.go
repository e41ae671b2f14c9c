package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records administrative actions against vendors, prices, orders and withdrawals.
type AuditLog struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	AdminID    *uint          `gorm:"index" json:"adminId"`
	Action     string         `gorm:"size:100;not null;index" json:"action"`
	Resource   string         `gorm:"size:100;index" json:"resource"`
	ResourceID string         `gorm:"size:100;index" json:"resourceId"`
	IP         string         `gorm:"size:45" json:"ip"`
	Metadata   datatypes.JSON `json:"metadata"`
	CreatedAt  time.Time      `json:"createdAt"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
