package repository

import (
	"errors"
	"time"

	"pharmart/internal/domain"
	"pharmart/internal/models"

	"gorm.io/gorm"
)

// OrderFilter carries listing parameters for buyer/supplier/admin order views.
type OrderFilter struct {
	UserID        uint
	SupplierID    uint
	Status        string
	PaymentStatus string
	Page          int
	Limit         int
}

// DailyRevenueRow is one day of paid-order revenue as returned by the store;
// days without orders are absent and get zero-filled by the aggregator.
type DailyRevenueRow struct {
	Date        string `json:"date"` // YYYY-MM-DD
	AmountCents int64  `json:"amount_cents"`
	Orders      int64  `json:"orders"`
}

// SupplierRevenueRow is a leaderboard row: revenue and order count for one
// supplier over a period, ordered by revenue descending.
type SupplierRevenueRow struct {
	SupplierID   uint   `json:"supplier_id"`
	SupplierName string `json:"supplier_name"`
	AmountCents  int64  `json:"amount_cents"`
	Orders       int64  `json:"orders"`
}

// StatusCountRow is one order-status bucket.
type StatusCountRow struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create stores the order and its items and decrements product stock, all in
// one transaction.
func (r *OrderRepository) Create(o *models.Order, productRepo *ProductRepository) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(o).Error; err != nil {
			return err
		}
		for _, item := range o.Items {
			if err := productRepo.DecrementStock(tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *OrderRepository) GetByID(id uint) (*models.Order, error) {
	var o models.Order
	if err := r.db.Preload("Items").First(&o, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) GetByReference(ref string) (*models.Order, error) {
	var o models.Order
	if err := r.db.Preload("Items").Where("order_reference = ?", ref).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepository) List(f OrderFilter) ([]models.Order, int64, error) {
	q := r.db.Model(&models.Order{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.SupplierID != 0 {
		q = q.Where("supplier_id = ?", f.SupplierID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}
	var total int64
	q.Count(&total)
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	var orders []models.Order
	err := q.Preload("Items").Order("created_at DESC").
		Limit(f.Limit).Offset((f.Page - 1) * f.Limit).Find(&orders).Error
	return orders, total, err
}

// MarkPaid flips payment_status Pending -> Paid exactly once and stamps
// paid_at. Returns ErrInvalidTransition if the order was already settled.
func (r *OrderRepository) MarkPaid(tx *gorm.DB, orderID uint, at time.Time) error {
	res := tx.Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", orderID, domain.PaymentStatusPending).
		Updates(map[string]interface{}{"payment_status": domain.PaymentStatusPaid, "paid_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

func (r *OrderRepository) UpdateStatus(orderID uint, status string) error {
	res := r.db.Model(&models.Order{}).Where("id = ?", orderID).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Counts returns total, pending (Processing) and completed (Delivered) order counts.
func (r *OrderRepository) Counts() (total, pending, completed int64, err error) {
	if err = r.db.Model(&models.Order{}).Count(&total).Error; err != nil {
		return
	}
	r.db.Model(&models.Order{}).Where("status = ?", domain.OrderStatusProcessing).Count(&pending)
	r.db.Model(&models.Order{}).Where("status = ?", domain.OrderStatusDelivered).Count(&completed)
	return
}

// SumPaidRevenue sums paid-order totals created in [from, to). A zero `from`
// removes the lower bound.
func (r *OrderRepository) SumPaidRevenue(from, to time.Time) (int64, error) {
	var out struct{ Total int64 }
	q := r.db.Model(&models.Order{}).
		Select("COALESCE(SUM(total_cents), 0) as total").
		Where("payment_status = ?", domain.PaymentStatusPaid)
	if !from.IsZero() {
		q = q.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("created_at < ?", to)
	}
	err := q.Scan(&out).Error
	return out.Total, err
}

// DailyPaidRevenue returns per-day revenue and order counts for paid orders
// created on or after `since`.
func (r *OrderRepository) DailyPaidRevenue(since time.Time) ([]DailyRevenueRow, error) {
	var rows []DailyRevenueRow
	err := r.db.Model(&models.Order{}).
		Select("DATE(created_at) as date, COALESCE(SUM(total_cents), 0) as amount_cents, COUNT(*) as orders").
		Where("payment_status = ? AND created_at >= ?", domain.PaymentStatusPaid, since).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&rows).Error
	return rows, err
}

// TopSuppliersByRevenue returns suppliers ranked by paid-order revenue within
// [from, to), at most `limit` rows.
func (r *OrderRepository) TopSuppliersByRevenue(from, to time.Time, limit int) ([]SupplierRevenueRow, error) {
	var rows []SupplierRevenueRow
	err := r.db.Model(&models.Order{}).
		Select("orders.supplier_id, users.name as supplier_name, COALESCE(SUM(orders.total_cents), 0) as amount_cents, COUNT(*) as orders").
		Joins("JOIN users ON users.id = orders.supplier_id").
		Where("orders.payment_status = ? AND orders.created_at >= ? AND orders.created_at < ?",
			domain.PaymentStatusPaid, from, to).
		Group("orders.supplier_id, users.name").
		Order("amount_cents DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

// CountByStatus groups orders by status.
func (r *OrderRepository) CountByStatus() ([]StatusCountRow, error) {
	var rows []StatusCountRow
	err := r.db.Model(&models.Order{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&rows).Error
	return rows, err
}
