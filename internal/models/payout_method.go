package models

import (
	"fmt"
	"time"

	"pharmart/internal/domain"

	"gorm.io/gorm"
)

type PayoutMethod struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	SupplierID uint   `gorm:"not null;index" json:"supplier_id"`
	Type       string `gorm:"size:20;not null" json:"type"` // bank | mpesa | mobile_money

	// Bank fields.
	BankName      string `gorm:"size:128" json:"bank_name,omitempty"`
	AccountName   string `gorm:"size:128" json:"account_name,omitempty"`
	AccountNumber string `gorm:"size:64" json:"-"`
	BranchName    string `gorm:"size:128" json:"branch_name,omitempty"`

	// Mpesa / mobile money fields.
	Provider    string `gorm:"size:64" json:"provider,omitempty"`
	PhoneNumber string `gorm:"size:20" json:"phone_number,omitempty"`
	TillNumber  string `gorm:"size:20" json:"till_number,omitempty"`

	IsPrimary  bool           `gorm:"default:false" json:"is_primary"`
	IsVerified bool           `gorm:"default:false" json:"is_verified"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	Supplier User `gorm:"foreignKey:SupplierID" json:"-"`
}

func (PayoutMethod) TableName() string {
	return "payout_methods"
}

// MaskedAccount returns the display-safe account identifier: last 4 digits for
// bank accounts and phone numbers, the till number verbatim for mpesa tills.
func (m *PayoutMethod) MaskedAccount() string {
	switch m.Type {
	case domain.PayoutMethodMpesa:
		if m.TillNumber != "" {
			return m.TillNumber
		}
		return maskLast4(m.PhoneNumber)
	case domain.PayoutMethodMobileMoney:
		return maskLast4(m.PhoneNumber)
	default:
		return maskLast4(m.AccountNumber)
	}
}

// DisplayName combines type-specific fields into a human-readable label.
func (m *PayoutMethod) DisplayName() string {
	switch m.Type {
	case domain.PayoutMethodBank:
		return fmt.Sprintf("%s - %s (%s)", m.BankName, m.AccountName, m.MaskedAccount())
	case domain.PayoutMethodMpesa:
		return fmt.Sprintf("M-Pesa %s", m.MaskedAccount())
	case domain.PayoutMethodMobileMoney:
		return fmt.Sprintf("%s %s", m.Provider, m.MaskedAccount())
	default:
		return m.MaskedAccount()
	}
}

func maskLast4(s string) string {
	if len(s) <= 4 {
		return s
	}
	return "****" + s[len(s)-4:]
}
