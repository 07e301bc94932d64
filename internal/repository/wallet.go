package repository

import (
	"context"

	"github.com/King12-D/hypegrow-boost/internal/model"

	"gorm.io/gorm"
)

type WalletRepository interface {
	Record(ctx context.Context, tx *gorm.DB, txn *model.WalletTransaction) error
	ListByUser(ctx context.Context, userID string) ([]*model.WalletTransaction, error)
}

type walletRepoImpl struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepoImpl{db: db}
}

func (r *walletRepoImpl) Record(ctx context.Context, tx *gorm.DB, txn *model.WalletTransaction) error {
	return conn(r.db, tx).WithContext(ctx).Create(txn).Error
}

func (r *walletRepoImpl) ListByUser(ctx context.Context, userID string) ([]*model.WalletTransaction, error) {
	var txns []*model.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&txns).Error

	if err != nil {
		return nil, err
	}
	return txns, nil
}
