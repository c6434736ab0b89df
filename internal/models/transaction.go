package models

import (
	"time"

	"gorm.io/gorm"
)

// Transaction is the atomic ledger entry: one row per movement of money for a
// supplier. Positive amounts credit the supplier, negative amounts debit.
// Rows are immutable once status reaches completed.
type Transaction struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Reference   string `gorm:"size:32;uniqueIndex;not null" json:"reference"`
	SupplierID  uint   `gorm:"not null;index" json:"supplier_id"`
	Type        string `gorm:"size:20;not null;index;uniqueIndex:idx_tx_source,priority:3" json:"type"` // order_income, payout, refund, adjustment
	AmountCents int64  `gorm:"not null" json:"amount_cents"`

	// Polymorphic pointer to the order or payout that caused this entry.
	// (reference_type, reference_id, type) is unique so an order can be
	// credited at most once.
	ReferenceType string `gorm:"size:20;uniqueIndex:idx_tx_source,priority:1" json:"reference_type"`
	ReferenceID   uint   `gorm:"uniqueIndex:idx_tx_source,priority:2" json:"reference_id"`

	Status      string         `gorm:"size:20;not null;index" json:"status"` // pending, completed, failed
	Description string         `gorm:"size:255" json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Supplier User `gorm:"foreignKey:SupplierID" json:"-"`
}

func (Transaction) TableName() string {
	return "transactions"
}
