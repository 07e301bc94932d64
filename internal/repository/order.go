package repository

import (
	"context"
	"strings"
	"time"

	"github.com/King12-D/hypegrow-boost/internal/dto"
	"github.com/King12-D/hypegrow-boost/internal/model"

	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	FindByID(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error)
	FindForUser(ctx context.Context, userID, orderID string) (*model.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Order, error)
	List(ctx context.Context, filter dto.OrderFilter) ([]*model.Order, error)
	Transition(ctx context.Context, tx *gorm.DB, orderID string, from, to model.OrderStatus) (bool, error)
	MarkPaid(ctx context.Context, tx *gorm.DB, orderID string) (bool, error)
	ClaimForDispatch(ctx context.Context, orderID string) (bool, error)
	MarkDispatched(ctx context.Context, orderID string, resellerOrderID int64) error
	MarkDispatchFailed(ctx context.Context, orderID string, reason string) error
	ReleaseStaleDispatches(ctx context.Context, claimedBefore time.Time) (int64, error)
	ListForPolling(ctx context.Context, limit int) ([]*model.Order, error)
	UpdateResellerStatus(ctx context.Context, tx *gorm.DB, orderID string, updates map[string]interface{}) error
	CountByStatus(ctx context.Context, status model.OrderStatus) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return conn(r.db, tx).WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error) {
	var order model.Order
	err := conn(r.db, tx).WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindForUser(ctx context.Context, userID, orderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) ListByUser(ctx context.Context, userID string) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) List(ctx context.Context, filter dto.OrderFilter) ([]*model.Order, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Select("orders.*").
		Joins("LEFT JOIN profiles ON profiles.id = orders.user_id").
		Preload("Profile")

	if filter.Status != "" {
		q = q.Where("orders.status = ?", filter.Status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		q = q.Where(`
			LOWER(orders.username) LIKE ?
			OR LOWER(orders.platform) LIKE ?
			OR LOWER(profiles.email) LIKE ?
		`, like, like, like)
	}

	var orders []*model.Order
	if err := q.Order("orders.created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}

	return orders, nil
}

// Transition moves an order from one status to another only if it is still
// in the expected status. It reports false when another writer got there first.
func (r *orderRepoImpl) Transition(ctx context.Context, tx *gorm.DB, orderID string, from, to model.OrderStatus) (bool, error) {
	result := conn(r.db, tx).WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *orderRepoImpl) MarkPaid(ctx context.Context, tx *gorm.DB, orderID string) (bool, error) {
	result := conn(r.db, tx).WithContext(ctx).Model(&model.Order{}).
		Where(`
			id = ?
			AND payment_status = ?
			AND status IN ?
		`,
			orderID,
			model.OrderPaymentPending,
			[]model.OrderStatus{model.OrderStatusPending, model.OrderStatusPendingPayment},
		).
		Updates(map[string]interface{}{
			"payment_status": model.OrderPaymentPaid,
			"status":         model.OrderStatusProcessing,
			"updated_at":     time.Now(),
		})

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ClaimForDispatch flips a paid, undispatched reseller order to dispatching.
// Only one caller can win the claim.
func (r *orderRepoImpl) ClaimForDispatch(ctx context.Context, orderID string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where(`
			id = ?
			AND payment_status = ?
			AND status = ?
			AND reseller_service_id IS NOT NULL
			AND reseller_order_id IS NULL
			AND fulfillment_state IN ?
		`,
			orderID,
			model.OrderPaymentPaid,
			model.OrderStatusProcessing,
			[]model.FulfillmentState{model.FulfillmentNone, model.FulfillmentFailed},
		).
		Updates(map[string]interface{}{
			"fulfillment_state": model.FulfillmentDispatching,
			"fulfillment_error": nil,
			"updated_at":        time.Now(),
		})

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *orderRepoImpl) MarkDispatched(ctx context.Context, orderID string, resellerOrderID int64) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND fulfillment_state = ?", orderID, model.FulfillmentDispatching).
		Updates(map[string]interface{}{
			"reseller_order_id": resellerOrderID,
			"fulfillment_state": model.FulfillmentDispatched,
			"updated_at":        time.Now(),
		}).Error
}

func (r *orderRepoImpl) MarkDispatchFailed(ctx context.Context, orderID string, reason string) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND fulfillment_state = ?", orderID, model.FulfillmentDispatching).
		Updates(map[string]interface{}{
			"fulfillment_state": model.FulfillmentFailed,
			"fulfillment_error": reason,
			"updated_at":        time.Now(),
		}).Error
}

// ReleaseStaleDispatches marks orders stuck in dispatching since before the
// cutoff as failed so an admin can look at them and retry.
func (r *orderRepoImpl) ReleaseStaleDispatches(ctx context.Context, claimedBefore time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where(`
			fulfillment_state = ?
			AND reseller_order_id IS NULL
			AND updated_at < ?
		`,
			model.FulfillmentDispatching,
			claimedBefore,
		).
		Updates(map[string]interface{}{
			"fulfillment_state": model.FulfillmentFailed,
			"fulfillment_error": "dispatch interrupted, check the reseller panel before retrying",
			"updated_at":        time.Now(),
		})

	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// ListForPolling returns dispatched orders still in progress, least recently
// touched first so a small batch size still cycles through every order.
func (r *orderRepoImpl) ListForPolling(ctx context.Context, limit int) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Where(`
			status = ?
			AND fulfillment_state = ?
			AND reseller_order_id IS NOT NULL
		`,
			model.OrderStatusProcessing,
			model.FulfillmentDispatched,
		).
		Order("updated_at ASC").
		Limit(limit).
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) UpdateResellerStatus(ctx context.Context, tx *gorm.DB, orderID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	return conn(r.db, tx).WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

func (r *orderRepoImpl) CountByStatus(ctx context.Context, status model.OrderStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("status = ?", status).
		Count(&count).Error

	return count, err
}

func (r *orderRepoImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).Count(&count).Error
	return count, err
}
