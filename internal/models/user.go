package models

import (
	"time"

	"pharmart/internal/domain"

	"gorm.io/gorm"
)

type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"size:128;not null" json:"name"`
	Email        string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string         `gorm:"size:255" json:"-"`
	Role         string         `gorm:"size:20;not null;index" json:"role"` // ADMIN | SUPPLIER | CUSTOMER
	Phone        string         `gorm:"size:20" json:"phone"`

	// Supplier-only fields.
	BusinessName string     `gorm:"size:255" json:"business_name,omitempty"`
	LicenseNo    string     `gorm:"size:64" json:"license_no,omitempty"`
	IsVerified   bool       `gorm:"default:false;index" json:"is_verified"`
	VerifiedAt   *time.Time `json:"verified_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsSupplier() bool { return u.Role == domain.RoleSupplier }
func (u *User) IsAdmin() bool    { return u.Role == domain.RoleAdmin }
