package models

import (
	"time"

	"gorm.io/gorm"
)

type Product struct {
	ID                   uint           `gorm:"primaryKey" json:"id"`
	SupplierID           uint           `gorm:"not null;index" json:"supplier_id"`
	CategoryID           uint           `gorm:"index" json:"category_id"`
	Name                 string         `gorm:"size:255;not null;index" json:"name"`
	Description          string         `gorm:"type:text" json:"description"`
	PriceCents           int64          `gorm:"not null" json:"price_cents"`
	StockQuantity        int            `gorm:"not null;default:0" json:"stock_quantity"`
	LowStockThreshold    int            `gorm:"not null;default:10" json:"low_stock_threshold"`
	Status               string         `gorm:"size:20;not null;index;default:'active'" json:"status"` // active | inactive
	RequiresPrescription bool           `gorm:"default:false" json:"requires_prescription"`
	ImageURL             string         `gorm:"size:512" json:"image_url"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`

	Supplier User     `gorm:"foreignKey:SupplierID" json:"-"`
	Category Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

// InStock reports whether the product can currently be ordered.
func (p *Product) InStock() bool {
	return p.StockQuantity > 0
}

// LowStock reports whether stock has fallen to or below the reorder threshold.
func (p *Product) LowStock() bool {
	return p.StockQuantity > 0 && p.StockQuantity <= p.LowStockThreshold
}
