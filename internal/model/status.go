package model

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusProcessing     OrderStatus = "processing"
	OrderStatusCompleted      OrderStatus = "completed"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusRefunded       OrderStatus = "refunded"
)

// OrderPaymentStatus is the payment_status column of an order.
type OrderPaymentStatus string

const (
	OrderPaymentPending OrderPaymentStatus = "pending"
	OrderPaymentPaid    OrderPaymentStatus = "paid"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSubmitted PaymentStatus = "submitted"
	PaymentStatusVerified  PaymentStatus = "verified"
	PaymentStatusRejected  PaymentStatus = "rejected"
)

type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodWallet       PaymentMethod = "wallet"
	PaymentMethodCard         PaymentMethod = "card"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodBankTransfer, PaymentMethodWallet, PaymentMethodCard:
		return true
	}
	return false
}

type FulfillmentState string

const (
	FulfillmentNone        FulfillmentState = ""
	FulfillmentDispatching FulfillmentState = "dispatching"
	FulfillmentDispatched  FulfillmentState = "dispatched"
	FulfillmentFailed      FulfillmentState = "failed"
)

type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

type WalletTransactionType string

const (
	WalletDeposit  WalletTransactionType = "deposit"
	WalletPurchase WalletTransactionType = "purchase"
	WalletRefund   WalletTransactionType = "refund"
)

type Role string

const (
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
	RoleUser      Role = "user"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:        {OrderStatusPendingPayment, OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusPendingPayment: {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing:     {OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded},
	OrderStatusCompleted:      {OrderStatusRefunded},
	OrderStatusCancelled:      {OrderStatusRefunded},
}

// these targets are only reachable once the order has been paid
var paidOnly = map[OrderStatus]bool{
	OrderStatusProcessing: true,
	OrderStatusCompleted:  true,
	OrderStatusRefunded:   true,
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPendingPayment, OrderStatusProcessing,
		OrderStatusCompleted, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// Terminal reports whether no further fulfillment work happens for the order.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled || s == OrderStatusRefunded
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus, paid bool) bool {
	if paidOnly[to] && !paid {
		return false
	}
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// DisplayStatus is the customer-facing label of an order.
// An unpaid order always reads as awaiting payment regardless of its status.
func DisplayStatus(status OrderStatus, paymentStatus OrderPaymentStatus) string {
	if paymentStatus == OrderPaymentPending && !status.Terminal() {
		return "Awaiting Payment"
	}
	switch status {
	case OrderStatusPending:
		return "Pending"
	case OrderStatusPendingPayment:
		return "Awaiting Payment"
	case OrderStatusProcessing:
		return "Processing"
	case OrderStatusCompleted:
		return "Completed"
	case OrderStatusCancelled:
		return "Cancelled"
	case OrderStatusRefunded:
		return "Refunded"
	}
	return string(status)
}
