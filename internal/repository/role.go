package repository

import (
	"context"

	"github.com/King12-D/hypegrow-boost/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoleRepository interface {
	HasRole(ctx context.Context, userID string, role model.Role) (bool, error)
	Grant(ctx context.Context, userID string, role model.Role) error
}

type roleRepoImpl struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepoImpl{db: db}
}

func (r *roleRepoImpl) HasRole(ctx context.Context, userID string, role model.Role) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.UserRole{}).
		Where("user_id = ? AND role = ?", userID, role).
		Count(&count).Error

	return count > 0, err
}

func (r *roleRepoImpl) Grant(ctx context.Context, userID string, role model.Role) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "role"}},
		DoNothing: true,
	}).Create(&model.UserRole{
		UserID: userID,
		Role:   role,
	}).Error
}
