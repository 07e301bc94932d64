package dto

import (
	"encoding/json"
	"time"

	"github.com/King12-D/hypegrow-boost/internal/model"

	"github.com/shopspring/decimal"
)

type CreateOrderRequest struct {
	ServicePackageID  string `json:"service_package_id"`
	ResellerServiceID int64  `json:"reseller_service_id"`
	Quantity          int    `json:"quantity"`
	Username          string `json:"username"`
	PostLink          string `json:"post_link"`
	Notes             string `json:"notes"`
	DiscountCode      string `json:"discount_code"`
}

type OrderResponse struct {
	*model.Order
	DisplayStatus string `json:"display_status"`
}

type CreatePaymentRequest struct {
	OrderID       string              `json:"order_id"`
	PaymentMethod model.PaymentMethod `json:"payment_method"`
	BankReference string              `json:"bank_reference"`
	// card nonce from the drop-in UI, only for card payments
	Nonce string `json:"nonce"`
}

type VerifyPaymentRequest struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason"`
}

type UpdateOrderStatusRequest struct {
	Status model.OrderStatus `json:"status"`
}

type ValidateDiscountRequest struct {
	Code        string          `json:"code"`
	OrderAmount decimal.Decimal `json:"order_amount"`
}

type ValidateDiscountResponse struct {
	ID                 string          `json:"id"`
	Code               string          `json:"code"`
	CalculatedDiscount decimal.Decimal `json:"calculated_discount"`
}

type CreateDiscountCodeRequest struct {
	Code            string           `json:"code"`
	DiscountPercent decimal.Decimal  `json:"discount_percent"`
	DiscountAmount  *decimal.Decimal `json:"discount_amount"`
	MaxUses         *int             `json:"max_uses"`
	ValidFrom       *time.Time       `json:"valid_from"`
	ValidUntil      *time.Time       `json:"valid_until"`
}

type UpdateProfileRequest struct {
	FullName    *string `json:"full_name"`
	PhoneNumber *string `json:"phone_number"`
}

type CreateTicketRequest struct {
	Subject  string               `json:"subject"`
	Message  string               `json:"message"`
	Priority model.TicketPriority `json:"priority"`
}

type UpdateTicketRequest struct {
	Status     model.TicketStatus `json:"status"`
	AssignedTo *string            `json:"assigned_to"`
}

type TrackEventRequest struct {
	EventType string          `json:"event_type"`
	EventData json.RawMessage `json:"event_data"`
}

type OrderFilter struct {
	Search string
	Status model.OrderStatus
}

type AdminStats struct {
	VerifiedRevenue decimal.Decimal `json:"verified_revenue"`
	TotalOrders     int64           `json:"total_orders"`
	CompletedOrders int64           `json:"completed_orders"`
	PendingPayments int64           `json:"pending_payments"`
}

type NotificationList struct {
	Notifications []*model.Notification `json:"notifications"`
	UnreadCount   int64                 `json:"unread_count"`
}

type CreatePackageRequest struct {
	Platform    string          `json:"platform"`
	ServiceType string          `json:"service_type"`
	PackageName string          `json:"package_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	IsPopular   bool            `json:"is_popular"`
}

type SetActiveRequest struct {
	IsActive bool `json:"is_active"`
}
