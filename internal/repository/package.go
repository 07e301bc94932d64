package repository

import (
	"context"
	"time"

	"github.com/King12-D/hypegrow-boost/internal/model"

	"gorm.io/gorm"
)

type PackageRepository interface {
	ListActive(ctx context.Context, platform string) ([]*model.ServicePackage, error)
	FindActive(ctx context.Context, packageID string) (*model.ServicePackage, error)
	Create(ctx context.Context, pkg *model.ServicePackage) error
	SetActive(ctx context.Context, packageID string, active bool) error
}

type packageRepoImpl struct {
	db *gorm.DB
}

func NewPackageRepository(db *gorm.DB) PackageRepository {
	return &packageRepoImpl{
		db: db,
	}
}

func (r *packageRepoImpl) ListActive(ctx context.Context, platform string) ([]*model.ServicePackage, error) {
	q := r.db.WithContext(ctx).Where("is_active = ?", true)
	if platform != "" {
		q = q.Where("platform = ?", platform)
	}

	var packages []*model.ServicePackage
	err := q.Order("platform").
		Order("service_type").
		Order("price").
		Find(&packages).Error

	if err != nil {
		return nil, err
	}

	return packages, nil
}

func (r *packageRepoImpl) FindActive(ctx context.Context, packageID string) (*model.ServicePackage, error) {
	var pkg model.ServicePackage
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", packageID, true).
		First(&pkg).Error

	if err != nil {
		return nil, err
	}

	return &pkg, nil
}

func (r *packageRepoImpl) Create(ctx context.Context, pkg *model.ServicePackage) error {
	return r.db.WithContext(ctx).Create(pkg).Error
}

func (r *packageRepoImpl) SetActive(ctx context.Context, packageID string, active bool) error {
	result := r.db.WithContext(ctx).Model(&model.ServicePackage{}).
		Where("id = ?", packageID).
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
