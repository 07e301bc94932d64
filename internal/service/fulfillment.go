package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/King12-D/hypegrow-boost/internal/client"
	"github.com/King12-D/hypegrow-boost/internal/config"
	"github.com/King12-D/hypegrow-boost/internal/model"
	"github.com/King12-D/hypegrow-boost/internal/repository"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type FulfillmentService interface {
	// Dispatch places the reseller order for a paid order. It runs at most
	// once per order unless the previous attempt failed.
	Dispatch(ctx context.Context, orderID string) (*model.Order, error)
	// AfterPaid dispatches when auto dispatch is on. Errors are logged.
	AfterPaid(ctx context.Context, orderID string)
	Refresh(ctx context.Context, order *model.Order) error
	PollOnce(ctx context.Context) (int, error)
}

type fulfillmentServiceImpl struct {
	db                  *gorm.DB
	orderRepo           repository.OrderRepository
	resellerClient      client.ResellerClient
	notificationService NotificationService
	publisher           client.EventPublisher
	autoDispatch        bool
	batch               int
	staleAfter          time.Duration
	storeAttempts       int
	retryDelay          time.Duration
	logger              *zap.Logger
}

func NewFulfillmentService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	resellerClient client.ResellerClient,
	notificationService NotificationService,
	publisher client.EventPublisher,
	cfg *config.Fulfillment,
	l *zap.Logger,
) FulfillmentService {
	batch := cfg.PollBatch
	if batch <= 0 {
		batch = 50
	}
	staleAfter := cfg.StaleDispatchAfter
	if staleAfter <= 0 {
		staleAfter = 5 * time.Minute
	}

	return &fulfillmentServiceImpl{
		db:                  db,
		orderRepo:           orderRepo,
		resellerClient:      resellerClient,
		notificationService: notificationService,
		publisher:           publisher,
		autoDispatch:        cfg.AutoDispatch,
		batch:               batch,
		staleAfter:          staleAfter,
		storeAttempts:       3,
		retryDelay:          200 * time.Millisecond,
		logger:              l,
	}
}

func (s *fulfillmentServiceImpl) Dispatch(ctx context.Context, orderID string) (*model.Order, error) {
	// once claimed the order must not be left in dispatching because the
	// caller went away
	ctx = context.WithoutCancel(ctx)

	claimed, err := s.orderRepo.ClaimForDispatch(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("claim order for dispatch: %w", err)
	}
	if !claimed {
		if _, err := s.orderRepo.FindByID(ctx, s.db, orderID); err != nil {
			return nil, notFound(err, "order")
		}
		return nil, fmt.Errorf("order %s is not awaiting dispatch: %w", orderID, ErrInvalidTransition)
	}

	order, err := s.orderRepo.FindByID(ctx, s.db, orderID)
	if err != nil {
		return nil, notFound(err, "order")
	}

	link := order.Username
	if order.PostLink != nil && *order.PostLink != "" {
		link = *order.PostLink
	}

	resellerOrderID, err := s.resellerClient.AddOrder(ctx, *order.ResellerServiceID, link, order.Quantity)
	if err != nil {
		s.logger.Error("reseller dispatch failed",
			zap.String("order_id", orderID),
			zap.Int64("reseller_service_id", *order.ResellerServiceID),
			zap.Error(err))

		if markErr := s.orderRepo.MarkDispatchFailed(ctx, orderID, err.Error()); markErr != nil {
			s.logger.Error("failed to record dispatch failure", zap.String("order_id", orderID), zap.Error(markErr))
		}
		return nil, fmt.Errorf("dispatch order %s: %w", orderID, err)
	}

	if err := s.storeDispatched(ctx, orderID, resellerOrderID); err != nil {
		// the panel already has the order; log enough to reconcile by hand
		s.logger.Error("failed to store reseller order id",
			zap.String("order_id", orderID),
			zap.Int64("reseller_order_id", resellerOrderID),
			zap.Error(err))

		reason := fmt.Sprintf("reseller order %d was placed but not stored: %v", resellerOrderID, err)
		if markErr := s.orderRepo.MarkDispatchFailed(ctx, orderID, reason); markErr != nil {
			s.logger.Error("failed to record dispatch failure", zap.String("order_id", orderID), zap.Error(markErr))
		}
		return nil, fmt.Errorf("store reseller order id: %w", err)
	}

	s.logger.Info("order dispatched to reseller",
		zap.String("order_id", orderID),
		zap.Int64("reseller_order_id", resellerOrderID))

	publishOrderEvent(ctx, s.publisher, s.logger, model.OrderEvent{
		Type:    model.EventOrderDispatched,
		OrderID: orderID,
		UserID:  order.UserID,
		Status:  order.Status,
	})

	return s.orderRepo.FindByID(ctx, s.db, orderID)
}

func (s *fulfillmentServiceImpl) storeDispatched(ctx context.Context, orderID string, resellerOrderID int64) error {
	var err error
	for attempt := 1; attempt <= s.storeAttempts; attempt++ {
		if err = s.orderRepo.MarkDispatched(ctx, orderID, resellerOrderID); err == nil {
			return nil
		}
		if attempt < s.storeAttempts {
			time.Sleep(time.Duration(attempt) * s.retryDelay)
		}
	}
	return err
}

func (s *fulfillmentServiceImpl) AfterPaid(ctx context.Context, orderID string) {
	if !s.autoDispatch {
		return
	}

	order, err := s.orderRepo.FindByID(ctx, s.db, orderID)
	if err != nil {
		s.logger.Error("load paid order", zap.String("order_id", orderID), zap.Error(err))
		return
	}
	if order.ResellerServiceID == nil {
		// local packages are fulfilled by staff
		return
	}

	if _, err := s.Dispatch(ctx, orderID); err != nil {
		s.logger.Warn("auto dispatch failed", zap.String("order_id", orderID), zap.Error(err))
	}
}

// Refresh pulls the reseller status of one dispatched order and finishes it
// when the reseller reports a final state.
func (s *fulfillmentServiceImpl) Refresh(ctx context.Context, order *model.Order) error {
	if order.ResellerOrderID == nil {
		return fmt.Errorf("order %s has no reseller order: %w", order.ID, ErrInvalidInput)
	}

	now := time.Now()
	st, err := s.resellerClient.OrderStatus(ctx, *order.ResellerOrderID)
	if err != nil {
		// still touch the row so the next batch moves on to other orders
		touchErr := s.orderRepo.UpdateResellerStatus(ctx, s.db, order.ID, map[string]interface{}{
			"last_polled_at": now,
		})
		if touchErr != nil {
			s.logger.Warn("touch polled order", zap.String("order_id", order.ID), zap.Error(touchErr))
		}
		return fmt.Errorf("reseller status for order %s: %w", order.ID, err)
	}

	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal reseller status: %w", err)
	}

	updates := map[string]interface{}{
		"reseller_status": st.Status,
		"reseller_charge": st.Charge.String(),
		"start_count":     st.StartCount.Int(),
		"remains":         st.Remains.Int(),
		"reseller_raw":    datatypes.JSON(raw),
		"last_polled_at":  now,
	}

	target, final := terminalStatus(st.Status)
	moved := false

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.UpdateResellerStatus(ctx, tx, order.ID, updates); err != nil {
			return fmt.Errorf("store reseller status: %w", err)
		}

		if !final || !model.CanTransition(order.Status, target, order.Paid()) {
			return nil
		}

		ok, err := s.orderRepo.Transition(ctx, tx, order.ID, order.Status, target)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		moved = ok
		return nil
	})
	if err != nil {
		return err
	}

	if moved {
		s.logger.Info("order finished by reseller",
			zap.String("order_id", order.ID),
			zap.String("reseller_status", st.Status),
			zap.String("status", string(target)))

		s.notifyFinished(ctx, order, target)
		publishOrderEvent(ctx, s.publisher, s.logger, model.OrderEvent{
			Type:    model.EventOrderStatusChanged,
			OrderID: order.ID,
			UserID:  order.UserID,
			Status:  target,
		})
	}

	return nil
}

func (s *fulfillmentServiceImpl) PollOnce(ctx context.Context) (int, error) {
	released, err := s.orderRepo.ReleaseStaleDispatches(ctx, time.Now().Add(-s.staleAfter))
	if err != nil {
		s.logger.Warn("release stale dispatches", zap.Error(err))
	} else if released > 0 {
		s.logger.Warn("released orders stuck in dispatching", zap.Int64("count", released))
	}

	orders, err := s.orderRepo.ListForPolling(ctx, s.batch)
	if err != nil {
		return 0, fmt.Errorf("list orders to poll: %w", err)
	}

	refreshed := 0
	for _, order := range orders {
		if ctx.Err() != nil {
			return refreshed, ctx.Err()
		}
		if err := s.Refresh(ctx, order); err != nil {
			s.logger.Warn("refresh order status", zap.String("order_id", order.ID), zap.Error(err))
			continue
		}
		refreshed++
	}

	return refreshed, nil
}

func (s *fulfillmentServiceImpl) notifyFinished(ctx context.Context, order *model.Order, status model.OrderStatus) {
	if status == model.OrderStatusCompleted {
		s.notificationService.Notify(ctx, order.UserID,
			"Order completed",
			fmt.Sprintf("Your %s %s order for @%s has been delivered.", order.Platform, order.ServiceType, order.Username),
			model.NotificationSuccess)
		return
	}

	s.notificationService.Notify(ctx, order.UserID,
		"Order cancelled",
		fmt.Sprintf("The provider cancelled your %s %s order for @%s. Contact support for a refund.", order.Platform, order.ServiceType, order.Username),
		model.NotificationWarning)
}

// terminalStatus maps a reseller status onto the order status it ends in.
func terminalStatus(resellerStatus string) (model.OrderStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(resellerStatus)) {
	case "completed", "partial":
		return model.OrderStatusCompleted, true
	case "canceled", "cancelled":
		return model.OrderStatusCancelled, true
	}
	return "", false
}
