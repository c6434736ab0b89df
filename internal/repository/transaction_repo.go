package repository

import (
	"errors"

	"pharmart/internal/domain"
	"pharmart/internal/models"

	"gorm.io/gorm"
)

// TransactionFilter carries listing parameters for ledger views.
type TransactionFilter struct {
	SupplierID uint
	Type       string
	Status     string
	Page       int
	Limit      int
}

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *TransactionRepository) Create(tx *gorm.DB, t *models.Transaction) error {
	return r.conn(tx).Create(t).Error
}

func (r *TransactionRepository) GetByID(id uint) (*models.Transaction, error) {
	var t models.Transaction
	if err := r.db.First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// SourceExists reports whether a ledger entry already exists for the given
// source event. Backs the idempotency guarantee on order income.
func (r *TransactionRepository) SourceExists(tx *gorm.DB, refType string, refID uint, txType string) (bool, error) {
	var n int64
	err := r.conn(tx).Model(&models.Transaction{}).
		Where("reference_type = ? AND reference_id = ? AND type = ?", refType, refID, txType).
		Count(&n).Error
	return n > 0, err
}

func (r *TransactionRepository) ReferenceExists(tx *gorm.DB, ref string) (bool, error) {
	var n int64
	err := r.conn(tx).Model(&models.Transaction{}).Where("reference = ?", ref).Count(&n).Error
	return n > 0, err
}

// CompletedSum is the supplier's ledger balance: the signed sum of all
// completed entries.
func (r *TransactionRepository) CompletedSum(tx *gorm.DB, supplierID uint) (int64, error) {
	var out struct{ Total int64 }
	err := r.conn(tx).Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount_cents), 0) as total").
		Where("supplier_id = ? AND status = ?", supplierID, domain.TransactionStatusCompleted).
		Scan(&out).Error
	return out.Total, err
}

func (r *TransactionRepository) List(f TransactionFilter) ([]models.Transaction, int64, error) {
	q := r.db.Model(&models.Transaction{})
	if f.SupplierID != 0 {
		q = q.Where("supplier_id = ?", f.SupplierID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var total int64
	q.Count(&total)
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	var list []models.Transaction
	err := q.Preload("Supplier").Order("created_at DESC").
		Limit(f.Limit).Offset((f.Page - 1) * f.Limit).Find(&list).Error
	return list, total, err
}
