package repository

import (
	"errors"
	"fmt"

	"pharmart/internal/domain"
	"pharmart/internal/models"

	"gorm.io/gorm"
)

// ProductFilter carries the listing parameters supplied by the HTTP layer.
type ProductFilter struct {
	Search      string
	Status      string
	SupplierID  uint
	CategoryID  uint
	StockStatus string // in_stock | low_stock | out_of_stock
	SortBy      string // name | price | stock | created
	SortDir     string // asc | desc
	Page        int
	Limit       int
}

// ProductStats summarizes the catalog for the listing header cards.
type ProductStats struct {
	Total      int64 `json:"total"`
	Active     int64 `json:"active"`
	LowStock   int64 `json:"low_stock"`
	OutOfStock int64 `json:"out_of_stock"`
}

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(p *models.Product) error {
	return r.db.Create(p).Error
}

func (r *ProductRepository) GetByID(id uint) (*models.Product, error) {
	var p models.Product
	if err := r.db.Preload("Category").First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) Update(p *models.Product) error {
	return r.db.Save(p).Error
}

// Delete removes a product unless order history references it; products with
// order_items rows must survive so past orders keep their line items.
func (r *ProductRepository) Delete(id uint) error {
	var refs int64
	if err := r.db.Model(&models.OrderItem{}).Where("product_id = ?", id).Count(&refs).Error; err != nil {
		return err
	}
	if refs > 0 {
		return fmt.Errorf("%w: product has %d order item(s)", domain.ErrConstraintViolation, refs)
	}
	res := r.db.Delete(&models.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List applies search, status, supplier, category, stock-status filters with
// sorting and pagination.
func (r *ProductRepository) List(f ProductFilter) ([]models.Product, int64, error) {
	q := r.db.Model(&models.Product{})
	if f.Search != "" {
		q = q.Where("name LIKE ? OR description LIKE ?", "%"+f.Search+"%", "%"+f.Search+"%")
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.SupplierID != 0 {
		q = q.Where("supplier_id = ?", f.SupplierID)
	}
	if f.CategoryID != 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	switch f.StockStatus {
	case "in_stock":
		q = q.Where("stock_quantity > low_stock_threshold")
	case "low_stock":
		q = q.Where("stock_quantity > 0 AND stock_quantity <= low_stock_threshold")
	case "out_of_stock":
		q = q.Where("stock_quantity = 0")
	}

	var total int64
	q.Count(&total)

	q = q.Order(orderClause(f.SortBy, f.SortDir))
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	var products []models.Product
	err := q.Preload("Category").Limit(f.Limit).Offset((f.Page - 1) * f.Limit).Find(&products).Error
	return products, total, err
}

// Stats returns catalog counts, optionally scoped to one supplier.
func (r *ProductRepository) Stats(supplierID uint) (*ProductStats, error) {
	var s ProductStats
	base := func() *gorm.DB {
		q := r.db.Model(&models.Product{})
		if supplierID != 0 {
			q = q.Where("supplier_id = ?", supplierID)
		}
		return q
	}
	if err := base().Count(&s.Total).Error; err != nil {
		return nil, err
	}
	base().Where("status = ?", domain.ProductStatusActive).Count(&s.Active)
	base().Where("stock_quantity > 0 AND stock_quantity <= low_stock_threshold").Count(&s.LowStock)
	base().Where("stock_quantity = 0").Count(&s.OutOfStock)
	return &s, nil
}

// DecrementStock reduces stock for a purchased product, refusing to oversell.
func (r *ProductRepository) DecrementStock(tx *gorm.DB, productID uint, qty int) error {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", productID, qty).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: insufficient stock for product %d", domain.ErrConstraintViolation, productID)
	}
	return nil
}

// orderClause whitelists sort keys so the HTTP layer cannot inject SQL.
func orderClause(sortBy, dir string) string {
	col := "created_at"
	switch sortBy {
	case "name":
		col = "name"
	case "price":
		col = "price_cents"
	case "stock":
		col = "stock_quantity"
	}
	if dir != "asc" {
		dir = "desc"
	}
	return col + " " + dir
}
