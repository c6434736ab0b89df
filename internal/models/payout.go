package models

import (
	"time"

	"gorm.io/gorm"
)

type Payout struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Reference        string         `gorm:"size:32;uniqueIndex;not null" json:"reference"`
	SupplierID       uint           `gorm:"not null;index" json:"supplier_id"`
	PayoutMethodID   uint           `gorm:"not null;index" json:"payout_method_id"`
	AmountCents      int64          `gorm:"not null" json:"amount_cents"`
	Status           string         `gorm:"size:20;not null;index" json:"status"` // pending, processing, completed, failed, cancelled
	Notes            string         `gorm:"type:text" json:"notes"`
	FailureReason    string         `gorm:"size:255" json:"failure_reason,omitempty"`
	AdminProcessedBy *uint          `json:"admin_processed_by,omitempty"`
	RequestedAt      time.Time      `gorm:"not null" json:"requested_at"`
	ProcessedAt      *time.Time     `json:"processed_at,omitempty"`
	CompletedAt      *time.Time     `json:"completed_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	Supplier User         `gorm:"foreignKey:SupplierID" json:"-"`
	Method   PayoutMethod `gorm:"foreignKey:PayoutMethodID" json:"method,omitempty"`
}

func (Payout) TableName() string {
	return "payouts"
}
