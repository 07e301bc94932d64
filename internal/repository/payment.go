package repository

import (
	"context"
	"time"

	"github.com/King12-D/hypegrow-boost/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// live payments block a second payment for the same order
var livePaymentStatuses = []model.PaymentStatus{
	model.PaymentStatusPending,
	model.PaymentStatusSubmitted,
	model.PaymentStatusVerified,
}

type PaymentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, payment *model.Payment) error
	FindByID(ctx context.Context, tx *gorm.DB, paymentID string) (*model.Payment, error)
	FindForUser(ctx context.Context, userID, paymentID string) (*model.Payment, error)
	HasLivePayment(ctx context.Context, tx *gorm.DB, orderID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Payment, error)
	List(ctx context.Context, status model.PaymentStatus) ([]*model.Payment, error)
	SubmitProof(ctx context.Context, paymentID, userID, proofURL string) (bool, error)
	Review(ctx context.Context, tx *gorm.DB, paymentID string, to model.PaymentStatus, reviewerID string, reason *string) (bool, error)
	SumVerified(ctx context.Context) (decimal.Decimal, error)
	CountByStatus(ctx context.Context, status model.PaymentStatus) (int64, error)
}

type paymentRepoImpl struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepoImpl{
		db: db,
	}
}

func (r *paymentRepoImpl) Create(ctx context.Context, tx *gorm.DB, payment *model.Payment) error {
	return conn(r.db, tx).WithContext(ctx).Create(payment).Error
}

func (r *paymentRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, paymentID string) (*model.Payment, error) {
	var payment model.Payment
	err := conn(r.db, tx).WithContext(ctx).
		Where("id = ?", paymentID).
		First(&payment).Error

	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepoImpl) FindForUser(ctx context.Context, userID, paymentID string) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.WithContext(ctx).
		Preload("Order").
		Where("id = ? AND user_id = ?", paymentID, userID).
		First(&payment).Error

	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepoImpl) HasLivePayment(ctx context.Context, tx *gorm.DB, orderID string) (bool, error) {
	var count int64
	err := conn(r.db, tx).WithContext(ctx).Model(&model.Payment{}).
		Where("order_id = ? AND status IN ?", orderID, livePaymentStatuses).
		Count(&count).Error

	return count > 0, err
}

func (r *paymentRepoImpl) ListByUser(ctx context.Context, userID string) ([]*model.Payment, error) {
	var payments []*model.Payment
	err := r.db.WithContext(ctx).
		Preload("Order").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&payments).Error

	if err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *paymentRepoImpl) List(ctx context.Context, status model.PaymentStatus) ([]*model.Payment, error) {
	q := r.db.WithContext(ctx).
		Preload("Order").
		Preload("Profile")

	if status != "" {
		q = q.Where("status = ?", status)
	}

	var payments []*model.Payment
	if err := q.Order("created_at DESC").Find(&payments).Error; err != nil {
		return nil, err
	}

	return payments, nil
}

// SubmitProof attaches a proof to a payment that is waiting for one, either
// the first time or after a rejection.
func (r *paymentRepoImpl) SubmitProof(ctx context.Context, paymentID, userID, proofURL string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&model.Payment{}).
		Where(`
			id = ?
			AND user_id = ?
			AND payment_method = ?
			AND status IN ?
		`,
			paymentID,
			userID,
			model.PaymentMethodBankTransfer,
			[]model.PaymentStatus{model.PaymentStatusPending, model.PaymentStatusRejected},
		).
		Updates(map[string]interface{}{
			"payment_proof_url": proofURL,
			"status":            model.PaymentStatusSubmitted,
			"rejection_reason":  nil,
			"updated_at":        time.Now(),
		})

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Review settles a submitted payment. Two reviewers racing on the same
// payment cannot both succeed.
func (r *paymentRepoImpl) Review(ctx context.Context, tx *gorm.DB, paymentID string, to model.PaymentStatus, reviewerID string, reason *string) (bool, error) {
	now := time.Now()
	updates := map[string]interface{}{
		"status":      to,
		"verified_by": reviewerID,
		"updated_at":  now,
	}
	if to == model.PaymentStatusVerified {
		updates["verified_at"] = now
	} else {
		updates["rejection_reason"] = reason
	}

	result := conn(r.db, tx).WithContext(ctx).Model(&model.Payment{}).
		Where("id = ? AND status = ?", paymentID, model.PaymentStatusSubmitted).
		Updates(updates)

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SumVerified is revenue: verified payments whose order was not refunded.
func (r *paymentRepoImpl) SumVerified(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	row := r.db.WithContext(ctx).Model(&model.Payment{}).
		Select("COALESCE(SUM(payments.amount), 0)").
		Joins("JOIN orders ON orders.id = payments.order_id").
		Where("payments.status = ? AND orders.status <> ?", model.PaymentStatusVerified, model.OrderStatusRefunded).
		Row()

	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (r *paymentRepoImpl) CountByStatus(ctx context.Context, status model.PaymentStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Payment{}).
		Where("status = ?", status).
		Count(&count).Error

	return count, err
}
