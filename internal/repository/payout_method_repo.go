package repository

import (
	"errors"

	"pharmart/internal/domain"
	"pharmart/internal/models"

	"gorm.io/gorm"
)

type PayoutMethodRepository struct {
	db *gorm.DB
}

func NewPayoutMethodRepository(db *gorm.DB) *PayoutMethodRepository {
	return &PayoutMethodRepository{db: db}
}

// Create stores a new method. The first method a supplier registers becomes
// primary; setting is_primary on a later one clears the previous primary in
// the same transaction (at most one primary per supplier).
func (r *PayoutMethodRepository) Create(m *models.PayoutMethod) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.PayoutMethod{}).
			Where("supplier_id = ?", m.SupplierID).Count(&existing).Error; err != nil {
			return err
		}
		if existing == 0 {
			m.IsPrimary = true
		} else if m.IsPrimary {
			if err := clearPrimary(tx, m.SupplierID); err != nil {
				return err
			}
		}
		return tx.Create(m).Error
	})
}

func (r *PayoutMethodRepository) GetByID(id uint) (*models.PayoutMethod, error) {
	var m models.PayoutMethod
	if err := r.db.First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *PayoutMethodRepository) ListBySupplier(supplierID uint) ([]models.PayoutMethod, error) {
	var list []models.PayoutMethod
	err := r.db.Where("supplier_id = ?", supplierID).
		Order("is_primary DESC, created_at DESC").Find(&list).Error
	return list, err
}

// SetPrimary promotes one method and demotes the supplier's others atomically.
func (r *PayoutMethodRepository) SetPrimary(supplierID, methodID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := clearPrimary(tx, supplierID); err != nil {
			return err
		}
		res := tx.Model(&models.PayoutMethod{}).
			Where("id = ? AND supplier_id = ?", methodID, supplierID).
			Update("is_primary", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (r *PayoutMethodRepository) SetVerified(methodID uint, verified bool) error {
	res := r.db.Model(&models.PayoutMethod{}).
		Where("id = ?", methodID).Update("is_verified", verified)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PayoutMethodRepository) Delete(supplierID, methodID uint) error {
	res := r.db.Where("supplier_id = ?", supplierID).Delete(&models.PayoutMethod{}, methodID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func clearPrimary(tx *gorm.DB, supplierID uint) error {
	return tx.Model(&models.PayoutMethod{}).
		Where("supplier_id = ? AND is_primary = ?", supplierID, true).
		Update("is_primary", false).Error
}
