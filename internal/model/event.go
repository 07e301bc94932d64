package model

import "time"

const (
	EventOrderCreated       = "order.created"
	EventPaymentVerified    = "payment.verified"
	EventPaymentRejected    = "payment.rejected"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderDispatched    = "order.dispatched"
)

// OrderEvent is published on the order events topic.
type OrderEvent struct {
	Type       string      `json:"type"`
	OrderID    string      `json:"order_id"`
	UserID     string      `json:"user_id"`
	Status     OrderStatus `json:"status,omitempty"`
	PaymentID  string      `json:"payment_id,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}
