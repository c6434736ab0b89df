package repository

import (
	"errors"
	"time"

	"pharmart/internal/domain"
	"pharmart/internal/models"

	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *models.User) error {
	return r.db.Create(u).Error
}

func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var u models.User
	if err := r.db.First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var u models.User
	if err := r.db.Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Update(u *models.User) error {
	return r.db.Save(u).Error
}

// SetVerified marks a supplier verified and stamps verified_at.
func (r *UserRepository) SetVerified(id uint, at time.Time) error {
	res := r.db.Model(&models.User{}).
		Where("id = ? AND role = ?", id, domain.RoleSupplier).
		Updates(map[string]interface{}{"is_verified": true, "verified_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CountSuppliers returns total and verified supplier counts.
func (r *UserRepository) CountSuppliers() (total, verified int64, err error) {
	q := r.db.Model(&models.User{}).Where("role = ?", domain.RoleSupplier)
	if err = q.Count(&total).Error; err != nil {
		return
	}
	err = r.db.Model(&models.User{}).
		Where("role = ? AND is_verified = ?", domain.RoleSupplier, true).
		Count(&verified).Error
	return
}

// CountSuppliersJoined counts suppliers created in [from, to).
func (r *UserRepository) CountSuppliersJoined(from, to time.Time) (int64, error) {
	var n int64
	err := r.db.Model(&models.User{}).
		Where("role = ? AND created_at >= ? AND created_at < ?", domain.RoleSupplier, from, to).
		Count(&n).Error
	return n, err
}

// LatestSuppliers returns the most recently joined suppliers.
func (r *UserRepository) LatestSuppliers(limit int) ([]models.User, error) {
	var users []models.User
	err := r.db.Where("role = ?", domain.RoleSupplier).
		Order("created_at DESC").Limit(limit).Find(&users).Error
	return users, err
}

// ListSuppliers returns suppliers with search and pagination for the admin panel.
func (r *UserRepository) ListSuppliers(search string, page, limit int) ([]models.User, int64, error) {
	q := r.db.Model(&models.User{}).Where("role = ?", domain.RoleSupplier)
	if search != "" {
		q = q.Where("name LIKE ? OR business_name LIKE ? OR email LIKE ?",
			"%"+search+"%", "%"+search+"%", "%"+search+"%")
	}
	var total int64
	q.Count(&total)
	var users []models.User
	err := q.Order("created_at DESC").Limit(limit).Offset((page - 1) * limit).Find(&users).Error
	return users, total, err
}
