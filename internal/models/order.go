package models

import (
	"time"

	"gorm.io/gorm"
)

type Order struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	OrderReference string `gorm:"size:64;uniqueIndex;not null" json:"order_reference"`
	UserID         uint   `gorm:"not null;index" json:"user_id"`
	SupplierID     uint   `gorm:"not null;index" json:"supplier_id"`
	SubtotalCents  int64  `gorm:"not null" json:"subtotal_cents"`
	TaxCents       int64  `gorm:"not null" json:"tax_cents"`
	TotalCents     int64  `gorm:"not null" json:"total_cents"`
	Status         string `gorm:"size:20;not null;index;default:'Processing'" json:"status"` // Processing | Shipped | Delivered | Cancelled
	PaymentStatus  string `gorm:"size:20;not null;index;default:'Pending'" json:"payment_status"` // Pending | Paid | Overdue

	// Snapshots taken at order time; never updated afterwards even if the
	// buyer's profile changes.
	ShippingAddress string `gorm:"type:text" json:"shipping_address"`
	BillingDetails  string `gorm:"type:text" json:"billing_details"`

	PaidAt    *time.Time     `json:"paid_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Buyer    User        `gorm:"foreignKey:UserID" json:"-"`
	Supplier User        `gorm:"foreignKey:SupplierID" json:"-"`
	Items    []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

func (o *Order) IsPaid() bool {
	return o.PaymentStatus == "Paid"
}

// OrderItem freezes the product name and unit price at purchase time so later
// product edits do not rewrite order history.
type OrderItem struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OrderID        uint      `gorm:"not null;index" json:"order_id"`
	ProductID      uint      `gorm:"not null;index" json:"product_id"`
	ProductName    string    `gorm:"size:255;not null" json:"product_name"`
	UnitPriceCents int64     `gorm:"not null" json:"unit_price_cents"`
	Quantity       int       `gorm:"not null" json:"quantity"`
	LineTotalCents int64     `gorm:"not null" json:"line_total_cents"`
	CreatedAt      time.Time `json:"created_at"`

	Product Product `gorm:"foreignKey:ProductID" json:"-"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
