package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/King12-D/hypegrow-boost/internal/dto"
	"github.com/King12-D/hypegrow-boost/internal/model"
	"github.com/King12-D/hypegrow-boost/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DiscountService interface {
	Validate(ctx context.Context, code string, orderAmount decimal.Decimal) (*dto.ValidateDiscountResponse, error)
	// Redeem runs inside the order transaction and returns the discount applied.
	Redeem(ctx context.Context, tx *gorm.DB, code string, orderID string, orderAmount decimal.Decimal) (decimal.Decimal, error)
	Create(ctx context.Context, createdBy string, req *dto.CreateDiscountCodeRequest) (*model.DiscountCode, error)
	List(ctx context.Context) ([]*model.DiscountCode, error)
	SetActive(ctx context.Context, discountID string, active bool) error
}

type discountServiceImpl struct {
	db           *gorm.DB
	discountRepo repository.DiscountRepository
	now          func() time.Time
}

func NewDiscountService(db *gorm.DB, discountRepo repository.DiscountRepository) DiscountService {
	return &discountServiceImpl{
		db:           db,
		discountRepo: discountRepo,
		now:          time.Now,
	}
}

func (s *discountServiceImpl) Validate(ctx context.Context, code string, orderAmount decimal.Decimal) (*dto.ValidateDiscountResponse, error) {
	if !orderAmount.IsPositive() {
		return nil, invalid("order_amount must be positive")
	}

	discount, err := s.lookup(ctx, s.db, code)
	if err != nil {
		return nil, err
	}

	amount, err := applyDiscount(discount, orderAmount, s.now())
	if err != nil {
		return nil, err
	}

	return &dto.ValidateDiscountResponse{
		ID:                 discount.ID,
		Code:               discount.Code,
		CalculatedDiscount: amount,
	}, nil
}

func (s *discountServiceImpl) Redeem(ctx context.Context, tx *gorm.DB, code string, orderID string, orderAmount decimal.Decimal) (decimal.Decimal, error) {
	discount, err := s.lookup(ctx, tx, code)
	if err != nil {
		return decimal.Zero, err
	}

	amount, err := applyDiscount(discount, orderAmount, s.now())
	if err != nil {
		return decimal.Zero, err
	}

	ok, err := s.discountRepo.Redeem(ctx, tx, discount.ID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("redeem discount: %w", err)
	}
	if !ok {
		return decimal.Zero, ErrDiscountExhausted
	}

	err = s.discountRepo.CreateOrderDiscount(ctx, tx, &model.OrderDiscount{
		OrderID:        orderID,
		DiscountCodeID: discount.ID,
		DiscountAmount: amount,
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("store order discount: %w", err)
	}

	return amount, nil
}

func (s *discountServiceImpl) Create(ctx context.Context, createdBy string, req *dto.CreateDiscountCodeRequest) (*model.DiscountCode, error) {
	code := normalizeCode(req.Code)
	if code == "" {
		return nil, invalid("code is required")
	}
	if req.DiscountPercent.IsNegative() || req.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, invalid("discount_percent must be between 0 and 100")
	}
	if req.DiscountAmount != nil && !req.DiscountAmount.IsPositive() {
		return nil, invalid("discount_amount must be positive")
	}
	if req.DiscountAmount == nil && !req.DiscountPercent.IsPositive() {
		return nil, invalid("either discount_percent or discount_amount is required")
	}
	if req.MaxUses != nil && *req.MaxUses <= 0 {
		return nil, invalid("max_uses must be positive")
	}

	validFrom := s.now()
	if req.ValidFrom != nil {
		validFrom = *req.ValidFrom
	}
	if req.ValidUntil != nil && !req.ValidUntil.After(validFrom) {
		return nil, invalid("valid_until must be after valid_from")
	}

	discount := &model.DiscountCode{
		Code:            code,
		DiscountPercent: req.DiscountPercent,
		MaxUses:         req.MaxUses,
		ValidFrom:       validFrom,
		ValidUntil:      req.ValidUntil,
		IsActive:        true,
		CreatedBy:       &createdBy,
	}
	if req.DiscountAmount != nil {
		discount.DiscountAmount = decimal.NewNullDecimal(*req.DiscountAmount)
	}

	if _, err := s.discountRepo.FindByCode(ctx, s.db, code); err == nil {
		return nil, fmt.Errorf("discount code %s already exists: %w", code, ErrConflict)
	}

	if err := s.discountRepo.Create(ctx, discount); err != nil {
		return nil, fmt.Errorf("create discount code: %w", err)
	}
	return discount, nil
}

func (s *discountServiceImpl) List(ctx context.Context) ([]*model.DiscountCode, error) {
	codes, err := s.discountRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list discount codes: %w", err)
	}
	return codes, nil
}

func (s *discountServiceImpl) SetActive(ctx context.Context, discountID string, active bool) error {
	if err := s.discountRepo.SetActive(ctx, discountID, active); err != nil {
		return notFound(err, "discount code")
	}
	return nil
}

func (s *discountServiceImpl) lookup(ctx context.Context, tx *gorm.DB, code string) (*model.DiscountCode, error) {
	code = normalizeCode(code)
	if code == "" {
		return nil, ErrDiscountInvalid
	}

	discount, err := s.discountRepo.FindByCode(ctx, tx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDiscountInvalid
		}
		return nil, fmt.Errorf("get discount code: %w", err)
	}
	if !discount.IsActive {
		return nil, ErrDiscountInvalid
	}
	return discount, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// applyDiscount checks the validity window and usage cap and returns the
// discount for orderAmount, never more than the amount itself.
func applyDiscount(discount *model.DiscountCode, orderAmount decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if now.Before(discount.ValidFrom) {
		return decimal.Zero, ErrDiscountNotYetValid
	}
	if discount.ValidUntil != nil && now.After(*discount.ValidUntil) {
		return decimal.Zero, ErrDiscountExpired
	}
	if discount.MaxUses != nil && discount.CurrentUses >= *discount.MaxUses {
		return decimal.Zero, ErrDiscountExhausted
	}

	var amount decimal.Decimal
	if discount.DiscountAmount.Valid && discount.DiscountAmount.Decimal.IsPositive() {
		amount = discount.DiscountAmount.Decimal
	} else {
		amount = orderAmount.Mul(discount.DiscountPercent).Div(decimal.NewFromInt(100)).Round(2)
	}

	if amount.GreaterThan(orderAmount) {
		amount = orderAmount
	}
	return amount, nil
}
