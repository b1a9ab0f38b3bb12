package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Josephquito/back-streaming/internal/model"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, tx *gorm.DB, account *model.Account) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(account).Error
}

// GetByID returns the account or (nil, nil) when it does not exist.
func (r *AccountRepository) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*model.Account, error) {
	if tx == nil {
		tx = r.db
	}
	var account model.Account
	err := tx.WithContext(ctx).Where("id = ?", id).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// ExistsIdentity reports whether (login, platform, business) is already taken.
func (r *AccountRepository) ExistsIdentity(ctx context.Context, login string, platformID, businessID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("login = ? AND platform_id = ? AND business_id = ?", login, platformID, businessID).
		Count(&count).Error
	return count > 0, err
}

func (r *AccountRepository) Save(ctx context.Context, tx *gorm.DB, account *model.Account) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Save(account).Error
}

func (r *AccountRepository) Delete(ctx context.Context, tx *gorm.DB, account *model.Account) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Delete(account).Error
}

func (r *AccountRepository) ListByBusiness(ctx context.Context, businessID int64) ([]*model.Account, error) {
	var accounts []*model.Account
	err := r.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Order("id ASC").
		Find(&accounts).Error
	return accounts, err
}

// FindAvailableForReplacement returns donor candidates: enabled accounts on
// the platform with no active profiles and a cutoff still in the future.
// excludeID keeps the failing account itself out of its own donor pool.
func (r *AccountRepository) FindAvailableForReplacement(ctx context.Context, tx *gorm.DB, businessID, platformID, excludeID int64, today time.Time) ([]*model.Account, error) {
	if tx == nil {
		tx = r.db
	}
	var accounts []*model.Account
	err := tx.WithContext(ctx).
		Where("business_id = ? AND platform_id = ? AND disabled = ?", businessID, platformID, false).
		Where("id <> ?", excludeID).
		Where("cutoff_date > ?", today).
		Where("NOT EXISTS (SELECT 1 FROM profiles WHERE profiles.account_id = accounts.id AND profiles.active = ?)", true).
		Order("cutoff_date ASC").
		Find(&accounts).Error
	return accounts, err
}
