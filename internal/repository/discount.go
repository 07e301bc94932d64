package repository

import (
	"context"
	"time"

	"github.com/King12-D/hypegrow-boost/internal/model"

	"gorm.io/gorm"
)

type DiscountRepository interface {
	FindByCode(ctx context.Context, tx *gorm.DB, code string) (*model.DiscountCode, error)
	Redeem(ctx context.Context, tx *gorm.DB, discountID string) (bool, error)
	CreateOrderDiscount(ctx context.Context, tx *gorm.DB, od *model.OrderDiscount) error
	Create(ctx context.Context, code *model.DiscountCode) error
	List(ctx context.Context) ([]*model.DiscountCode, error)
	SetActive(ctx context.Context, discountID string, active bool) error
}

type discountRepoImpl struct {
	db *gorm.DB
}

func NewDiscountRepository(db *gorm.DB) DiscountRepository {
	return &discountRepoImpl{
		db: db,
	}
}

func (r *discountRepoImpl) FindByCode(ctx context.Context, tx *gorm.DB, code string) (*model.DiscountCode, error) {
	var discount model.DiscountCode
	err := conn(r.db, tx).WithContext(ctx).
		Where("code = ?", code).
		First(&discount).Error

	if err != nil {
		return nil, err
	}

	return &discount, nil
}

// Redeem uses up one slot of the code. It reports false once the code has
// run out or was switched off in the meantime.
func (r *discountRepoImpl) Redeem(ctx context.Context, tx *gorm.DB, discountID string) (bool, error) {
	result := conn(r.db, tx).WithContext(ctx).Model(&model.DiscountCode{}).
		Where(`
			id = ?
			AND is_active = ?
			AND (max_uses IS NULL OR current_uses < max_uses)
		`, discountID, true).
		Updates(map[string]interface{}{
			"current_uses": gorm.Expr("current_uses + 1"),
			"updated_at":   time.Now(),
		})

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *discountRepoImpl) CreateOrderDiscount(ctx context.Context, tx *gorm.DB, od *model.OrderDiscount) error {
	return conn(r.db, tx).WithContext(ctx).Create(od).Error
}

func (r *discountRepoImpl) Create(ctx context.Context, code *model.DiscountCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *discountRepoImpl) List(ctx context.Context) ([]*model.DiscountCode, error) {
	var codes []*model.DiscountCode
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&codes).Error; err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *discountRepoImpl) SetActive(ctx context.Context, discountID string, active bool) error {
	result := r.db.WithContext(ctx).Model(&model.DiscountCode{}).
		Where("id = ?", discountID).
		Updates(map[string]interface{}{
			"is_active":  active,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
