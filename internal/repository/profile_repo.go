package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Josephquito/back-streaming/internal/model"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Create(ctx context.Context, tx *gorm.DB, profile *model.Profile) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(profile).Error
}

// GetByID returns the profile or (nil, nil) when it does not exist.
func (r *ProfileRepository) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*model.Profile, error) {
	if tx == nil {
		tx = r.db
	}
	var profile model.Profile
	err := tx.WithContext(ctx).Where("id = ?", id).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) Save(ctx context.Context, tx *gorm.DB, profile *model.Profile) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Save(profile).Error
}

// ListActiveByAccount returns the profiles currently sold out of an account.
func (r *ProfileRepository) ListActiveByAccount(ctx context.Context, tx *gorm.DB, accountID int64) ([]*model.Profile, error) {
	if tx == nil {
		tx = r.db
	}
	var profiles []*model.Profile
	err := tx.WithContext(ctx).
		Where("account_id = ? AND active = ?", accountID, true).
		Order("id ASC").
		Find(&profiles).Error
	return profiles, err
}

func (r *ProfileRepository) CountActiveByAccount(ctx context.Context, tx *gorm.DB, accountID int64) (int, error) {
	if tx == nil {
		tx = r.db
	}
	var count int64
	err := tx.WithContext(ctx).
		Model(&model.Profile{}).
		Where("account_id = ? AND active = ?", accountID, true).
		Count(&count).Error
	return int(count), err
}

// ListByBusiness returns every sold profile of a business, historical rows
// included, newest sale first.
func (r *ProfileRepository) ListByBusiness(ctx context.Context, businessID int64) ([]*model.Profile, error) {
	var profiles []*model.Profile
	err := r.db.WithContext(ctx).
		Preload("Account").
		Preload("Client").
		Preload("Seller").
		Where("business_id = ?", businessID).
		Order("sale_date DESC, id DESC").
		Find(&profiles).Error
	return profiles, err
}
