package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/King12-D/hypegrow-boost/internal/client"
	"github.com/King12-D/hypegrow-boost/internal/config"
	"github.com/King12-D/hypegrow-boost/internal/dto"
	"github.com/King12-D/hypegrow-boost/internal/model"
	"github.com/King12-D/hypegrow-boost/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OrderService interface {
	Create(ctx context.Context, userID string, req *dto.CreateOrderRequest) (*dto.OrderResponse, error)
	ListMine(ctx context.Context, userID string) ([]*dto.OrderResponse, error)
	GetMine(ctx context.Context, userID, orderID string) (*dto.OrderResponse, error)
	CancelMine(ctx context.Context, userID, orderID string) (*dto.OrderResponse, error)
}

type orderServiceImpl struct {
	db                  *gorm.DB
	orderRepo           repository.OrderRepository
	packageRepo         repository.PackageRepository
	catalogService      CatalogService
	discountService     DiscountService
	fulfillmentService  FulfillmentService
	notificationService NotificationService
	publisher           client.EventPublisher
	multiplier          float64
	logger              *zap.Logger
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	packageRepo repository.PackageRepository,
	catalogService CatalogService,
	discountService DiscountService,
	fulfillmentService FulfillmentService,
	notificationService NotificationService,
	publisher client.EventPublisher,
	cfg *config.Reseller,
	l *zap.Logger,
) OrderService {
	return &orderServiceImpl{
		db:                  db,
		orderRepo:           orderRepo,
		packageRepo:         packageRepo,
		catalogService:      catalogService,
		discountService:     discountService,
		fulfillmentService:  fulfillmentService,
		notificationService: notificationService,
		publisher:           publisher,
		multiplier:          cfg.PriceMultiplier,
		logger:              l,
	}
}

func (s *orderServiceImpl) Create(ctx context.Context, userID string, req *dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	order, err := s.price(ctx, req)
	if err != nil {
		return nil, err
	}

	order.ID = uuid.NewString()
	order.UserID = userID
	order.Status = model.OrderStatusPendingPayment
	order.PaymentStatus = model.OrderPaymentPending
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		order.Notes = &notes
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if code := strings.TrimSpace(req.DiscountCode); code != "" {
			discount, err := s.discountService.Redeem(ctx, tx, code, order.ID, order.Amount)
			if err != nil {
				return err
			}
			order.DiscountAmount = discount
			order.Amount = order.Amount.Sub(discount)
		}

		// nothing left to pay
		if !order.Amount.IsPositive() {
			order.Amount = decimal.Zero
			order.PaymentStatus = model.OrderPaymentPaid
			order.Status = model.OrderStatusProcessing
		}

		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order in db: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		zap.String("order_id", order.ID),
		zap.String("user_id", userID),
		zap.String("amount", order.Amount.StringFixed(2)))

	publishOrderEvent(ctx, s.publisher, s.logger, model.OrderEvent{
		Type:    model.EventOrderCreated,
		OrderID: order.ID,
		UserID:  userID,
		Status:  order.Status,
	})
	s.notificationService.Notify(ctx, userID,
		"Order placed",
		fmt.Sprintf("Your order for %d %s %s has been placed.", order.Quantity, order.Platform, order.ServiceType),
		model.NotificationInfo)

	if order.Paid() {
		s.fulfillmentService.AfterPaid(ctx, order.ID)
		if fresh, err := s.orderRepo.FindByID(ctx, s.db, order.ID); err == nil {
			order = fresh
		}
	}

	return toOrderResponse(order), nil
}

// price builds an unsaved order from what the customer picked. Prices always
// come from the catalog, never from the request.
func (s *orderServiceImpl) price(ctx context.Context, req *dto.CreateOrderRequest) (*model.Order, error) {
	username := strings.TrimSpace(req.Username)
	postLink := strings.TrimSpace(req.PostLink)

	hasPackage := req.ServicePackageID != ""
	hasReseller := req.ResellerServiceID != 0
	if hasPackage == hasReseller {
		return nil, invalid("exactly one of service_package_id and reseller_service_id is required")
	}
	if postLink != "" {
		if u, err := url.Parse(postLink); err != nil || u.Host == "" {
			return nil, invalid("post_link must be a full URL")
		}
	}

	order := &model.Order{}
	if postLink != "" {
		order.PostLink = &postLink
	}

	if hasPackage {
		if username == "" {
			return nil, invalid("username is required")
		}

		pkg, err := s.packageRepo.FindActive(ctx, req.ServicePackageID)
		if err != nil {
			return nil, notFound(err, "service package")
		}
		if !pkg.Price.IsPositive() {
			return nil, invalid("service package %s has no price", pkg.ID)
		}

		order.Platform = pkg.Platform
		order.ServiceType = pkg.ServiceType
		order.PackageName = pkg.PackageName
		order.Quantity = pkg.Quantity
		order.Amount = pkg.Price
		order.Username = username
		order.ServicePackageID = &pkg.ID
		return order, nil
	}

	if username == "" && postLink == "" {
		return nil, invalid("username or post_link is required")
	}
	if username == "" {
		username = usernameFromLink(postLink)
	}

	svc, err := s.catalogService.FindResellerService(ctx, req.ResellerServiceID)
	if err != nil {
		return nil, err
	}

	if req.Quantity <= 0 {
		return nil, invalid("quantity must be positive")
	}
	if svc.MinQuantity > 0 && req.Quantity < svc.MinQuantity {
		return nil, invalid("quantity must be at least %d", svc.MinQuantity)
	}
	if svc.MaxQuantity > 0 && req.Quantity > svc.MaxQuantity {
		return nil, invalid("quantity must be at most %d", svc.MaxQuantity)
	}

	amount, err := ResellerPrice(svc.Rate, s.multiplier, req.Quantity)
	if err != nil {
		return nil, fmt.Errorf("price reseller service %d: %w", svc.ResellerServiceID, err)
	}
	// only a discount may bring a total down to zero
	if !amount.IsPositive() {
		return nil, invalid("quantity %d is too small to bill for this service", req.Quantity)
	}

	serviceID := svc.ResellerServiceID
	order.Platform = svc.Platform
	order.ServiceType = svc.ServiceType
	order.PackageName = svc.PackageName
	order.Quantity = req.Quantity
	order.Amount = amount
	order.Username = username
	order.ResellerServiceID = &serviceID
	return order, nil
}

func (s *orderServiceImpl) ListMine(ctx context.Context, userID string) ([]*dto.OrderResponse, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return toOrderResponses(orders), nil
}

func (s *orderServiceImpl) GetMine(ctx context.Context, userID, orderID string) (*dto.OrderResponse, error) {
	order, err := s.orderRepo.FindForUser(ctx, userID, orderID)
	if err != nil {
		return nil, notFound(err, "order")
	}
	return toOrderResponse(order), nil
}

// CancelMine lets a customer withdraw an order they have not paid for.
func (s *orderServiceImpl) CancelMine(ctx context.Context, userID, orderID string) (*dto.OrderResponse, error) {
	order, err := s.orderRepo.FindForUser(ctx, userID, orderID)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if order.Paid() {
		return nil, fmt.Errorf("paid orders can only be cancelled by support: %w", ErrInvalidTransition)
	}
	if !model.CanTransition(order.Status, model.OrderStatusCancelled, false) {
		return nil, fmt.Errorf("cannot cancel a %s order: %w", order.Status, ErrInvalidTransition)
	}

	ok, err := s.orderRepo.Transition(ctx, s.db, order.ID, order.Status, model.OrderStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("cancel order: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("order changed while cancelling: %w", ErrConflict)
	}

	publishOrderEvent(ctx, s.publisher, s.logger, model.OrderEvent{
		Type:    model.EventOrderStatusChanged,
		OrderID: order.ID,
		UserID:  userID,
		Status:  model.OrderStatusCancelled,
	})

	order.Status = model.OrderStatusCancelled
	return toOrderResponse(order), nil
}

func usernameFromLink(link string) string {
	trimmed := strings.TrimRight(link, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	return strings.TrimPrefix(trimmed, "@")
}

func toOrderResponse(order *model.Order) *dto.OrderResponse {
	return &dto.OrderResponse{
		Order:         order,
		DisplayStatus: model.DisplayStatus(order.Status, order.PaymentStatus),
	}
}

func toOrderResponses(orders []*model.Order) []*dto.OrderResponse {
	out := make([]*dto.OrderResponse, len(orders))
	for i, order := range orders {
		out[i] = toOrderResponse(order)
	}
	return out
}
