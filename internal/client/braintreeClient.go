package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/King12-D/hypegrow-boost/internal/config"

	"github.com/braintree-go/braintree-go"
	"github.com/shopspring/decimal"
)

var ErrCardPaymentsDisabled = errors.New("card payments are not configured")

type CardClient interface {
	// Charge settles a one-time sale for the drop-in UI nonce and returns the transaction id
	Charge(ctx context.Context, nonce string, amount decimal.Decimal, orderID string) (string, error)
}

type braintreeClientImpl struct {
	gateway *braintree.Braintree
}

// NewBraintreeClient initializes the Braintree SDK gateway. Without a
// merchant id every charge fails with ErrCardPaymentsDisabled.
func NewBraintreeClient(cfg *config.Braintree) CardClient {
	if cfg.MerchantID == "" {
		return &disabledCardClient{}
	}

	env := braintree.Sandbox
	if cfg.Environment == "production" {
		env = braintree.Production
	}

	gateway := braintree.New(
		env,
		cfg.MerchantID,
		cfg.PublicKey,
		cfg.PrivateKey,
	)

	return &braintreeClientImpl{
		gateway: gateway,
	}
}

func (c *braintreeClientImpl) Charge(ctx context.Context, nonce string, amount decimal.Decimal, orderID string) (string, error) {
	if nonce == "" {
		return "", fmt.Errorf("missing payment method nonce")
	}

	// Braintree expects NewDecimal(unscaled, scale): 3500.00 -> NewDecimal(350000, 2)
	cents := amount.Round(2).Mul(decimal.NewFromInt(100)).IntPart()
	btAmount := braintree.NewDecimal(cents, 2)

	req := &braintree.TransactionRequest{
		Type:               "sale",
		Amount:             btAmount,
		PaymentMethodNonce: nonce,
		OrderId:            orderID,
		Options: &braintree.TransactionOptions{
			SubmitForSettlement: true,
		},
	}

	tx, err := c.gateway.Transaction().Create(ctx, req)
	if err != nil {
		return "", fmt.Errorf("transaction creation failed: %w", err)
	}

	if tx.Status == braintree.TransactionStatusProcessorDeclined ||
		tx.Status == braintree.TransactionStatusGatewayRejected {
		return "", fmt.Errorf("transaction declined by processor: %s", tx.ProcessorResponseText)
	}

	return tx.Id, nil
}

type disabledCardClient struct{}

func (disabledCardClient) Charge(context.Context, string, decimal.Decimal, string) (string, error) {
	return "", ErrCardPaymentsDisabled
}
