package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Profile struct {
	ID            string          `gorm:"primaryKey;size:64;not null" json:"id"` // auth subject
	Email         string          `gorm:"size:255;index" json:"email"`
	FullName      *string         `gorm:"size:255" json:"full_name"`
	PhoneNumber   *string         `gorm:"size:32" json:"phone_number"`
	WalletBalance decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"wallet_balance"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type UserRole struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"size:64;uniqueIndex:idx_user_role;not null" json:"user_id"`
	Role      Role      `gorm:"size:16;uniqueIndex:idx_user_role;not null" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type ServicePackage struct {
	ID          string          `gorm:"primaryKey;size:36;not null" json:"id"`
	Platform    string          `gorm:"size:64;index;not null" json:"platform"`
	ServiceType string          `gorm:"size:64;not null" json:"service_type"`
	PackageName string          `gorm:"size:255;not null" json:"package_name"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	Price       decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"price"`
	IsPopular   bool            `gorm:"not null" json:"is_popular"`
	IsActive    bool            `gorm:"index;not null" json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type Order struct {
	ID             string             `gorm:"primaryKey;size:36;not null" json:"id"`
	UserID         string             `gorm:"size:64;index;not null" json:"user_id"`
	Platform       string             `gorm:"size:64;not null" json:"platform"`
	ServiceType    string             `gorm:"size:64;not null" json:"service_type"`
	PackageName    string             `gorm:"size:255;not null" json:"package_name"`
	Quantity       int                `gorm:"not null" json:"quantity"`
	Amount         decimal.Decimal    `gorm:"type:decimal(14,2);not null" json:"amount"` // after discount
	DiscountAmount decimal.Decimal    `gorm:"type:decimal(14,2);not null" json:"discount_amount"`
	Username       string             `gorm:"size:255;not null" json:"username"`
	PostLink       *string            `gorm:"size:1024" json:"post_link"`
	Notes          *string            `gorm:"type:text" json:"notes"`
	Status         OrderStatus        `gorm:"size:32;index;not null" json:"status"`
	PaymentStatus  OrderPaymentStatus `gorm:"size:16;index;not null" json:"payment_status"`

	// exactly one of these identifies what was bought
	ServicePackageID  *string `gorm:"size:36" json:"service_package_id,omitempty"`
	ResellerServiceID *int64  `json:"reseller_service_id,omitempty"`

	ResellerOrderID  *int64           `gorm:"index" json:"reseller_order_id,omitempty"`
	FulfillmentState FulfillmentState `gorm:"size:16;index" json:"fulfillment_state"`
	FulfillmentError *string          `gorm:"type:text" json:"fulfillment_error,omitempty"`
	ResellerStatus   *string          `gorm:"size:32" json:"reseller_status,omitempty"`
	ResellerCharge   *string          `gorm:"size:32" json:"reseller_charge,omitempty"`
	StartCount       *int             `json:"start_count,omitempty"`
	Remains          *int             `json:"remains,omitempty"`
	ResellerRaw      datatypes.JSON   `json:"-"`
	LastPolledAt     *time.Time       `json:"last_polled_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Profile *Profile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}

func (o *Order) Paid() bool {
	return o.PaymentStatus == OrderPaymentPaid
}

type Payment struct {
	ID                     string          `gorm:"primaryKey;size:36;not null" json:"id"`
	OrderID                string          `gorm:"size:36;index;not null" json:"order_id"`
	UserID                 string          `gorm:"size:64;index;not null" json:"user_id"`
	Amount                 decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	PaymentMethod          PaymentMethod   `gorm:"size:32;not null" json:"payment_method"`
	BankReference          *string         `gorm:"size:128" json:"bank_reference"`
	PaymentProofURL        *string         `gorm:"size:1024" json:"payment_proof_url"`
	Status                 PaymentStatus   `gorm:"size:16;index;not null" json:"status"`
	ProcessorTransactionID *string         `gorm:"size:128" json:"processor_transaction_id,omitempty"`
	RejectionReason        *string         `gorm:"type:text" json:"rejection_reason,omitempty"`
	VerifiedAt             *time.Time      `json:"verified_at"`
	VerifiedBy             *string         `gorm:"size:64" json:"verified_by"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`

	Order   *Order   `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	Profile *Profile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}

type DiscountCode struct {
	ID              string              `gorm:"primaryKey;size:36;not null" json:"id"`
	Code            string              `gorm:"size:64;uniqueIndex;not null" json:"code"` // upper case
	DiscountPercent decimal.Decimal     `gorm:"type:decimal(5,2);not null" json:"discount_percent"`
	DiscountAmount  decimal.NullDecimal `gorm:"type:decimal(14,2)" json:"discount_amount"`
	MaxUses         *int                `json:"max_uses"`
	CurrentUses     int                 `gorm:"not null" json:"current_uses"`
	ValidFrom       time.Time           `gorm:"not null" json:"valid_from"`
	ValidUntil      *time.Time          `json:"valid_until"`
	IsActive        bool                `gorm:"not null" json:"is_active"`
	CreatedBy       *string             `gorm:"size:64" json:"created_by"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

type OrderDiscount struct {
	ID             string          `gorm:"primaryKey;size:36;not null" json:"id"`
	OrderID        string          `gorm:"size:36;uniqueIndex;not null" json:"order_id"`
	DiscountCodeID string          `gorm:"size:36;index;not null" json:"discount_code_id"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"discount_amount"`
	CreatedAt      time.Time       `json:"created_at"`
}

type SupportTicket struct {
	ID         string         `gorm:"primaryKey;size:36;not null" json:"id"`
	UserID     string         `gorm:"size:64;index;not null" json:"user_id"`
	Subject    string         `gorm:"size:255;not null" json:"subject"`
	Message    string         `gorm:"type:text;not null" json:"message"`
	Status     TicketStatus   `gorm:"size:16;index;not null" json:"status"`
	Priority   TicketPriority `gorm:"size:16;not null" json:"priority"`
	AssignedTo *string        `gorm:"size:64" json:"assigned_to"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

type Notification struct {
	ID        string           `gorm:"primaryKey;size:36;not null" json:"id"`
	UserID    string           `gorm:"size:64;index;not null" json:"user_id"`
	Title     string           `gorm:"size:255;not null" json:"title"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	Type      NotificationType `gorm:"size:16;not null" json:"type"`
	IsRead    bool             `gorm:"index;not null" json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

type WalletTransaction struct {
	ID              string                `gorm:"primaryKey;size:36;not null" json:"id"`
	UserID          string                `gorm:"size:64;index;not null" json:"user_id"`
	Amount          decimal.Decimal       `gorm:"type:decimal(14,2);not null" json:"amount"`
	TransactionType WalletTransactionType `gorm:"size:16;not null" json:"transaction_type"`
	Status          string                `gorm:"size:16;not null" json:"status"`
	Description     *string               `gorm:"size:255" json:"description"`
	OrderID         *string               `gorm:"size:36;index" json:"order_id"`
	CreatedAt       time.Time             `json:"created_at"`
}

type AnalyticsEvent struct {
	ID        string         `gorm:"primaryKey;size:36;not null" json:"id"`
	UserID    *string        `gorm:"size:64;index" json:"user_id"`
	EventType string         `gorm:"size:64;index;not null" json:"event_type"`
	EventData datatypes.JSON `json:"event_data"`
	IPAddress *string        `gorm:"size:64" json:"ip_address"`
	UserAgent *string        `gorm:"size:512" json:"user_agent"`
	CreatedAt time.Time      `json:"created_at"`
}

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func (o *Order) BeforeCreate(*gorm.DB) error             { ensureID(&o.ID); return nil }
func (p *Payment) BeforeCreate(*gorm.DB) error           { ensureID(&p.ID); return nil }
func (p *ServicePackage) BeforeCreate(*gorm.DB) error    { ensureID(&p.ID); return nil }
func (d *DiscountCode) BeforeCreate(*gorm.DB) error      { ensureID(&d.ID); return nil }
func (d *OrderDiscount) BeforeCreate(*gorm.DB) error     { ensureID(&d.ID); return nil }
func (t *SupportTicket) BeforeCreate(*gorm.DB) error     { ensureID(&t.ID); return nil }
func (n *Notification) BeforeCreate(*gorm.DB) error      { ensureID(&n.ID); return nil }
func (w *WalletTransaction) BeforeCreate(*gorm.DB) error { ensureID(&w.ID); return nil }
func (e *AnalyticsEvent) BeforeCreate(*gorm.DB) error    { ensureID(&e.ID); return nil }
