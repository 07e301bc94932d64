package service

import (
	"context"
	"testing"
	"time"

	"github.com/King12-D/hypegrow-boost/internal/dto"
	"github.com/King12-D/hypegrow-boost/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDiscount(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	later := now.Add(24 * time.Hour)
	earlier := now.Add(-24 * time.Hour)
	one := 1

	tests := []struct {
		name     string
		discount model.DiscountCode
		amount   string
		want     string
		wantErr  error
	}{
		{
			name:     "percentage",
			discount: model.DiscountCode{DiscountPercent: decimal.NewFromInt(10), ValidFrom: earlier},
			amount:   "2500",
			want:     "250",
		},
		{
			name: "fixed amount wins over percentage",
			discount: model.DiscountCode{
				DiscountPercent: decimal.NewFromInt(50),
				DiscountAmount:  decimal.NewNullDecimal(decimal.NewFromInt(300)),
				ValidFrom:       earlier,
			},
			amount: "2500",
			want:   "300",
		},
		{
			name: "never more than the order",
			discount: model.DiscountCode{
				DiscountAmount: decimal.NewNullDecimal(decimal.NewFromInt(5000)),
				ValidFrom:      earlier,
			},
			amount: "2500",
			want:   "2500",
		},
		{
			name:     "not yet valid",
			discount: model.DiscountCode{DiscountPercent: decimal.NewFromInt(10), ValidFrom: later},
			amount:   "100",
			wantErr:  ErrDiscountNotYetValid,
		},
		{
			name:     "expired",
			discount: model.DiscountCode{DiscountPercent: decimal.NewFromInt(10), ValidFrom: earlier.Add(-time.Hour), ValidUntil: &earlier},
			amount:   "100",
			wantErr:  ErrDiscountExpired,
		},
		{
			name:     "used up",
			discount: model.DiscountCode{DiscountPercent: decimal.NewFromInt(10), ValidFrom: earlier, MaxUses: &one, CurrentUses: 1},
			amount:   "100",
			wantErr:  ErrDiscountExhausted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := applyDiscount(&tt.discount, decimal.RequireFromString(tt.amount), now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s", got)
		})
	}
}

func TestDiscountValidate(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	_, err := env.discounts.Create(ctx, "admin-1", &dto.CreateDiscountCodeRequest{
		Code:            " welcome10 ",
		DiscountPercent: decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	resp, err := env.discounts.Validate(ctx, "Welcome10", decimal.NewFromInt(2500))
	require.NoError(t, err)
	assert.Equal(t, "WELCOME10", resp.Code)
	assert.True(t, resp.CalculatedDiscount.Equal(decimal.NewFromInt(250)))

	_, err = env.discounts.Validate(ctx, "NOPE", decimal.NewFromInt(2500))
	assert.ErrorIs(t, err, ErrDiscountInvalid)

	for _, amount := range []int64{0, -100} {
		_, err = env.discounts.Validate(ctx, "WELCOME10", decimal.NewFromInt(amount))
		assert.ErrorIs(t, err, ErrInvalidInput, amount)
	}

	_, err = env.discounts.Create(ctx, "admin-1", &dto.CreateDiscountCodeRequest{
		Code:            "WELCOME10",
		DiscountPercent: decimal.NewFromInt(5),
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestDiscountInactive(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	code, err := env.discounts.Create(ctx, "admin-1", &dto.CreateDiscountCodeRequest{
		Code:            "SPRING",
		DiscountPercent: decimal.NewFromInt(20),
	})
	require.NoError(t, err)
	require.NoError(t, env.discounts.SetActive(ctx, code.ID, false))

	_, err = env.discounts.Validate(ctx, "SPRING", decimal.NewFromInt(100))
	assert.ErrorIs(t, err, ErrDiscountInvalid)
}

func TestDiscountCreateRejectsBadInput(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	zero := 0

	_, err := env.discounts.Create(ctx, "admin-1", &dto.CreateDiscountCodeRequest{Code: "X", DiscountPercent: decimal.NewFromInt(120)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.discounts.Create(ctx, "admin-1", &dto.CreateDiscountCodeRequest{Code: "X"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.discounts.Create(ctx, "admin-1", &dto.CreateDiscountCodeRequest{Code: "X", DiscountPercent: decimal.NewFromInt(5), MaxUses: &zero})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDiscountMaxUsesAcrossOrders(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()
	env.user(t, "u1")
	pkg := env.pkg(t, "1000")
	one := 1

	_, err := env.discounts.Create(ctx, "admin-1", &dto.CreateDiscountCodeRequest{
		Code:            "ONCE",
		DiscountPercent: decimal.NewFromInt(10),
		MaxUses:         &one,
	})
	require.NoError(t, err)

	req := &dto.CreateOrderRequest{ServicePackageID: pkg.ID, Username: "someone", DiscountCode: "once"}

	order, err := env.orders.Create(ctx, "u1", req)
	require.NoError(t, err)
	assert.True(t, order.Amount.Equal(decimal.NewFromInt(900)), order.Amount.String())
	assert.True(t, order.DiscountAmount.Equal(decimal.NewFromInt(100)))

	_, err = env.orders.Create(ctx, "u1", req)
	assert.ErrorIs(t, err, ErrDiscountExhausted)

	var redemptions int64
	require.NoError(t, env.db.Model(&model.OrderDiscount{}).Count(&redemptions).Error)
	assert.Equal(t, int64(1), redemptions)

	var orders int64
	require.NoError(t, env.db.Model(&model.Order{}).Count(&orders).Error)
	assert.Equal(t, int64(1), orders)
}
