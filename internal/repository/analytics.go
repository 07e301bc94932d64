package repository

import (
	"context"

	"github.com/King12-D/hypegrow-boost/internal/model"

	"gorm.io/gorm"
)

type AnalyticsRepository interface {
	Record(ctx context.Context, event *model.AnalyticsEvent) error
}

type analyticsRepositoryImpl struct {
	db *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepositoryImpl{db: db}
}

func (r *analyticsRepositoryImpl) Record(ctx context.Context, event *model.AnalyticsEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}
