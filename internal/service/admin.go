package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/King12-D/hypegrow-boost/internal/client"
	"github.com/King12-D/hypegrow-boost/internal/dto"
	"github.com/King12-D/hypegrow-boost/internal/model"
	"github.com/King12-D/hypegrow-boost/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type AdminService interface {
	ListOrders(ctx context.Context, filter dto.OrderFilter) ([]*dto.OrderResponse, error)
	ListPayments(ctx context.Context, status model.PaymentStatus) ([]*model.Payment, error)
	Stats(ctx context.Context) (*dto.AdminStats, error)
	VerifyPayment(ctx context.Context, adminID, paymentID string, req *dto.VerifyPaymentRequest) (*model.Payment, error)
	UpdateOrderStatus(ctx context.Context, adminID, orderID string, to model.OrderStatus) (*dto.OrderResponse, error)
	RetryFulfillment(ctx context.Context, orderID string) (*dto.OrderResponse, error)
	RefundOrder(ctx context.Context, adminID, orderID string) (*dto.OrderResponse, error)
}

type adminServiceImpl struct {
	db                  *gorm.DB
	orderRepo           repository.OrderRepository
	paymentRepo         repository.PaymentRepository
	profileRepo         repository.ProfileRepository
	walletRepo          repository.WalletRepository
	fulfillmentService  FulfillmentService
	notificationService NotificationService
	publisher           client.EventPublisher
	logger              *zap.Logger
}

func NewAdminService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	profileRepo repository.ProfileRepository,
	walletRepo repository.WalletRepository,
	fulfillmentService FulfillmentService,
	notificationService NotificationService,
	publisher client.EventPublisher,
	l *zap.Logger,
) AdminService {
	return &adminServiceImpl{
		db:                  db,
		orderRepo:           orderRepo,
		paymentRepo:         paymentRepo,
		profileRepo:         profileRepo,
		walletRepo:          walletRepo,
		fulfillmentService:  fulfillmentService,
		notificationService: notificationService,
		publisher:           publisher,
		logger:              l,
	}
}

func (s *adminServiceImpl) ListOrders(ctx context.Context, filter dto.OrderFilter) ([]*dto.OrderResponse, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalid("unknown order status %q", filter.Status)
	}

	orders, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return toOrderResponses(orders), nil
}

func (s *adminServiceImpl) ListPayments(ctx context.Context, status model.PaymentStatus) ([]*model.Payment, error) {
	payments, err := s.paymentRepo.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

func (s *adminServiceImpl) Stats(ctx context.Context) (*dto.AdminStats, error) {
	revenue, err := s.paymentRepo.SumVerified(ctx)
	if err != nil {
		return nil, fmt.Errorf("sum verified payments: %w", err)
	}
	total, err := s.orderRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	completed, err := s.orderRepo.CountByStatus(ctx, model.OrderStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("count completed orders: %w", err)
	}
	awaitingReview, err := s.paymentRepo.CountByStatus(ctx, model.PaymentStatusSubmitted)
	if err != nil {
		return nil, fmt.Errorf("count submitted payments: %w", err)
	}

	return &dto.AdminStats{
		VerifiedRevenue: revenue,
		TotalOrders:     total,
		CompletedOrders: completed,
		PendingPayments: awaitingReview,
	}, nil
}

// VerifyPayment approves or rejects a submitted payment. Approval marks the
// order paid in the same transaction, so a payment is never verified for an
// order that could not take it.
func (s *adminServiceImpl) VerifyPayment(ctx context.Context, adminID, paymentID string, req *dto.VerifyPaymentRequest) (*model.Payment, error) {
	var payment *model.Payment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		payment, err = s.paymentRepo.FindByID(ctx, tx, paymentID)
		if err != nil {
			return notFound(err, "payment")
		}

		to := model.PaymentStatusRejected
		var reason *string
		if req.Approved {
			to = model.PaymentStatusVerified
		} else if r := strings.TrimSpace(req.Reason); r != "" {
			reason = &r
		}

		ok, err := s.paymentRepo.Review(ctx, tx, paymentID, to, adminID, reason)
		if err != nil {
			return fmt.Errorf("review payment: %w", err)
		}
		if !ok {
			return fmt.Errorf("payment is %s, not awaiting review: %w", payment.Status, ErrInvalidTransition)
		}

		if req.Approved {
			ok, err := s.orderRepo.MarkPaid(ctx, tx, payment.OrderID)
			if err != nil {
				return fmt.Errorf("mark order paid: %w", err)
			}
			if !ok {
				return fmt.Errorf("order can no longer be paid: %w", ErrInvalidTransition)
			}
		}

		payment, err = s.paymentRepo.FindByID(ctx, tx, paymentID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment reviewed",
		zap.String("payment_id", paymentID),
		zap.String("order_id", payment.OrderID),
		zap.String("admin_id", adminID),
		zap.String("status", string(payment.Status)))

	if req.Approved {
		s.notificationService.Notify(ctx, payment.UserID,
			"Payment verified",
			"Your payment has been verified and your order is now processing.",
			model.NotificationSuccess)
		publishOrderEvent(ctx, s.publisher, s.logger, model.OrderEvent{
			Type:      model.EventPaymentVerified,
			OrderID:   payment.OrderID,
			UserID:    payment.UserID,
			Status:    model.OrderStatusProcessing,
			PaymentID: payment.ID,
		})
		s.fulfillmentService.AfterPaid(ctx, payment.OrderID)
	} else {
		msg := "Your payment proof was rejected. Please upload a new proof."
		if payment.RejectionReason != nil {
			msg = fmt.Sprintf("Your payment proof was rejected: %s. Please upload a new proof.", *payment.RejectionReason)
		}
		s.notificationService.Notify(ctx, payment.UserID, "Payment rejected", msg, model.NotificationError)
		publishOrderEvent(ctx, s.publisher, s.logger, model.OrderEvent{
			Type:      model.EventPaymentRejected,
			OrderID:   payment.OrderID,
			UserID:    payment.UserID,
			PaymentID: payment.ID,
		})
	}

	return payment, nil
}

func (s *adminServiceImpl) UpdateOrderStatus(ctx context.Context, adminID, orderID string, to model.OrderStatus) (*dto.OrderResponse, error) {
	if !to.Valid() {
		return nil, invalid("unknown order status %q", to)
	}
	if to == model.OrderStatusRefunded {
		return s.RefundOrder(ctx, adminID, orderID)
	}

	order, err := s.orderRepo.FindByID(ctx, s.db, orderID)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if !model.CanTransition(order.Status, to, order.Paid()) {
		return nil, fmt.Errorf("order cannot move from %s to %s: %w", order.Status, to, ErrInvalidTransition)
	}

	ok, err := s.orderRepo.Transition(ctx, s.db, orderID, order.Status, to)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("order changed while updating: %w", ErrConflict)
	}

	s.logger.Info("order status updated",
		zap.String("order_id", orderID),
		zap.String("admin_id", adminID),
		zap.String("from", string(order.Status)),
		zap.String("to", string(to)))

	s.notificationService.Notify(ctx, order.UserID,
		"Order updated",
		fmt.Sprintf("Your %s %s order is now %s.", order.Platform, order.ServiceType, strings.ToLower(model.DisplayStatus(to, order.PaymentStatus))),
		model.NotificationInfo)
	publishOrderEvent(ctx, s.publisher, s.logger, model.OrderEvent{
		Type:    model.EventOrderStatusChanged,
		OrderID: orderID,
		UserID:  order.UserID,
		Status:  to,
	})

	order.Status = to
	return toOrderResponse(order), nil
}

func (s *adminServiceImpl) RetryFulfillment(ctx context.Context, orderID string) (*dto.OrderResponse, error) {
	order, err := s.fulfillmentService.Dispatch(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return toOrderResponse(order), nil
}

// RefundOrder returns the paid amount to the customer's wallet.
func (s *adminServiceImpl) RefundOrder(ctx context.Context, adminID, orderID string) (*dto.OrderResponse, error) {
	var order *model.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.orderRepo.FindByID(ctx, tx, orderID)
		if err != nil {
			return notFound(err, "order")
		}
		if !model.CanTransition(order.Status, model.OrderStatusRefunded, order.Paid()) {
			return fmt.Errorf("cannot refund a %s order: %w", model.DisplayStatus(order.Status, order.PaymentStatus), ErrInvalidTransition)
		}

		ok, err := s.orderRepo.Transition(ctx, tx, orderID, order.Status, model.OrderStatusRefunded)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		if !ok {
			return fmt.Errorf("order changed while refunding: %w", ErrConflict)
		}

		if order.Amount.IsPositive() {
			if err := s.profileRepo.Credit(ctx, tx, order.UserID, order.Amount); err != nil {
				return fmt.Errorf("credit wallet: %w", err)
			}

			desc := fmt.Sprintf("Refund for %s %s order", order.Platform, order.ServiceType)
			err = s.walletRepo.Record(ctx, tx, &model.WalletTransaction{
				UserID:          order.UserID,
				Amount:          order.Amount,
				TransactionType: model.WalletRefund,
				Status:          "completed",
				Description:     &desc,
				OrderID:         &order.ID,
			})
			if err != nil {
				return fmt.Errorf("record wallet transaction: %w", err)
			}
		}

		order.Status = model.OrderStatusRefunded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order refunded",
		zap.String("order_id", orderID),
		zap.String("admin_id", adminID),
		zap.String("amount", order.Amount.StringFixed(2)))

	s.notificationService.Notify(ctx, order.UserID,
		"Order refunded",
		fmt.Sprintf("%s has been credited to your wallet.", order.Amount.StringFixed(2)),
		model.NotificationInfo)
	publishOrderEvent(ctx, s.publisher, s.logger, model.OrderEvent{
		Type:    model.EventOrderStatusChanged,
		OrderID: orderID,
		UserID:  order.UserID,
		Status:  model.OrderStatusRefunded,
	})

	return toOrderResponse(order), nil
}
