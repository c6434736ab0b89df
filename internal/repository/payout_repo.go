package repository

import (
	"errors"

	"pharmart/internal/domain"
	"pharmart/internal/models"

	"gorm.io/gorm"
)

// PayoutFilter carries listing parameters for supplier/admin payout views.
type PayoutFilter struct {
	SupplierID uint
	Status     string
	Page       int
	Limit      int
}

type PayoutRepository struct {
	db *gorm.DB
}

func NewPayoutRepository(db *gorm.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

// conn returns the transaction handle when one is in progress, else the base DB.
func (r *PayoutRepository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *PayoutRepository) Create(tx *gorm.DB, p *models.Payout) error {
	return r.conn(tx).Create(p).Error
}

func (r *PayoutRepository) GetByID(id uint) (*models.Payout, error) {
	var p models.Payout
	if err := r.db.Preload("Method").First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetForUpdate loads a payout with a row lock inside the given transaction so
// concurrent status transitions serialize.
func (r *PayoutRepository) GetForUpdate(tx *gorm.DB, id uint) (*models.Payout, error) {
	var p models.Payout
	err := r.conn(tx).Set("gorm:for_update", true).First(&p, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PayoutRepository) Save(tx *gorm.DB, p *models.Payout) error {
	return r.conn(tx).Save(p).Error
}

// LockSupplier takes a row lock on the supplier's user row. Payout requests
// lock it before the balance check so two concurrent requests for the same
// supplier cannot both pass.
func (r *PayoutRepository) LockSupplier(tx *gorm.DB, supplierID uint) error {
	var u models.User
	err := r.conn(tx).Set("gorm:for_update", true).First(&u, supplierID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}

// ReservedSum sums payouts in pending/processing for a supplier: balance that
// is spoken for but not yet debited from the ledger.
func (r *PayoutRepository) ReservedSum(tx *gorm.DB, supplierID uint) (int64, error) {
	var out struct{ Total int64 }
	err := r.conn(tx).Model(&models.Payout{}).
		Select("COALESCE(SUM(amount_cents), 0) as total").
		Where("supplier_id = ? AND status IN ?", supplierID,
			[]string{domain.PayoutStatusPending, domain.PayoutStatusProcessing}).
		Scan(&out).Error
	return out.Total, err
}

func (r *PayoutRepository) ReferenceExists(ref string) (bool, error) {
	var n int64
	err := r.db.Model(&models.Payout{}).Where("reference = ?", ref).Count(&n).Error
	return n > 0, err
}

func (r *PayoutRepository) List(f PayoutFilter) ([]models.Payout, int64, error) {
	q := r.db.Model(&models.Payout{})
	if f.SupplierID != 0 {
		q = q.Where("supplier_id = ?", f.SupplierID)
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
	var list []models.Payout
	err := q.Preload("Method").Preload("Supplier").Order("requested_at DESC").
		Limit(f.Limit).Offset((f.Page - 1) * f.Limit).Find(&list).Error
	return list, total, err
}

// PendingStats counts and sums payouts awaiting settlement (pending or processing).
func (r *PayoutRepository) PendingStats() (count, amountCents int64, err error) {
	statuses := []string{domain.PayoutStatusPending, domain.PayoutStatusProcessing}
	if err = r.db.Model(&models.Payout{}).Where("status IN ?", statuses).Count(&count).Error; err != nil {
		return
	}
	var out struct{ Total int64 }
	err = r.db.Model(&models.Payout{}).
		Select("COALESCE(SUM(amount_cents), 0) as total").
		Where("status IN ?", statuses).
		Scan(&out).Error
	amountCents = out.Total
	return
}

// LatestPayouts returns the most recently requested payouts with suppliers preloaded.
func (r *PayoutRepository) LatestPayouts(limit int) ([]models.Payout, error) {
	var list []models.Payout
	err := r.db.Preload("Supplier").Order("requested_at DESC").Limit(limit).Find(&list).Error
	return list, err
}
