package client

import (
	"fmt"
	"strings"
	"time"

	"github.com/King12-D/hypegrow-boost/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// dialectorFor picks the gorm driver from the DATABASE_URL scheme.
// Anything that is not postgres or mysql is treated as a sqlite file path.
func dialectorFor(databaseURL string) gorm.Dialector {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgres.Open(databaseURL)
	case strings.HasPrefix(databaseURL, "mysql://"):
		return mysql.Open(strings.TrimPrefix(databaseURL, "mysql://"))
	default:
		return sqlite.Open(strings.TrimPrefix(databaseURL, "sqlite://"))
	}
}

func InitDBClient(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(dialectorFor(databaseURL), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Warn),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Profile{},
		&model.UserRole{},
		&model.ServicePackage{},
		&model.Order{},
		&model.Payment{},
		&model.DiscountCode{},
		&model.OrderDiscount{},
		&model.SupportTicket{},
		&model.Notification{},
		&model.WalletTransaction{},
		&model.AnalyticsEvent{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
