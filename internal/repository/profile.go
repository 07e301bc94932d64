package repository

import (
	"context"
	"time"

	"github.com/King12-D/hypegrow-boost/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository interface {
	GetOrCreate(ctx context.Context, userID, email string) (*model.Profile, error)
	FindByID(ctx context.Context, tx *gorm.DB, userID string) (*model.Profile, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	Debit(ctx context.Context, tx *gorm.DB, userID string, amount decimal.Decimal) (bool, error)
	Credit(ctx context.Context, tx *gorm.DB, userID string, amount decimal.Decimal) error
}

type profileRepoImpl struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepoImpl{
		db: db,
	}
}

// GetOrCreate inserts an empty profile the first time a user shows up.
func (r *profileRepoImpl) GetOrCreate(ctx context.Context, userID, email string) (*model.Profile, error) {
	profile := &model.Profile{
		ID:            userID,
		Email:         email,
		WalletBalance: decimal.Zero,
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(profile).Error
	if err != nil {
		return nil, err
	}

	return r.FindByID(ctx, r.db, userID)
}

func (r *profileRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, userID string) (*model.Profile, error) {
	var profile model.Profile
	err := conn(r.db, tx).WithContext(ctx).
		Where("id = ?", userID).
		First(&profile).Error

	if err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *profileRepoImpl) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&model.Profile{}).
		Where("id = ?", userID).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Debit takes amount from the wallet only if the balance covers it.
func (r *profileRepoImpl) Debit(ctx context.Context, tx *gorm.DB, userID string, amount decimal.Decimal) (bool, error) {
	result := conn(r.db, tx).WithContext(ctx).Model(&model.Profile{}).
		Where("id = ? AND wallet_balance >= ?", userID, amount).
		Updates(map[string]interface{}{
			"wallet_balance": gorm.Expr("wallet_balance - ?", amount),
			"updated_at":     time.Now(),
		})

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *profileRepoImpl) Credit(ctx context.Context, tx *gorm.DB, userID string, amount decimal.Decimal) error {
	result := conn(r.db, tx).WithContext(ctx).Model(&model.Profile{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"wallet_balance": gorm.Expr("wallet_balance + ?", amount),
			"updated_at":     time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
