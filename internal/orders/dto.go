package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/nucleotide-health/nucleotide-backend/pkg/enums"
)

// CreateOrderInput starts a checkout. CartItemID references any live item of
// the user's cart; the whole cart is ordered.
type CreateOrderInput struct {
	UserID     uuid.UUID
	CartItemID uuid.UUID
	AddressID  *uuid.UUID
}

// CreateOrderResult is handed to the checkout UI to open the gateway widget.
type CreateOrderResult struct {
	OrderID         uuid.UUID `json:"order_id"`
	OrderNumber     string    `json:"order_number"`
	RazorpayOrderID string    `json:"razorpay_order_id"`
	AmountPaise     int64     `json:"amount"`
	Currency        string    `json:"currency"`
	Retry           bool      `json:"retry,omitempty"`
}

// VerifyPaymentInput is the frontend-reported payment confirmation.
type VerifyPaymentInput struct {
	UserID            uuid.UUID
	OrderID           uuid.UUID
	RazorpayOrderID   string
	RazorpayPaymentID string
	RazorpaySignature string
}

// VerifyPaymentResult reports the advisory verification outcome.
type VerifyPaymentResult struct {
	Status        string    `json:"status"`
	Message       string    `json:"message"`
	OrderID       uuid.UUID `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	PaymentStatus string    `json:"payment_status"`
	OrderStatus   string    `json:"order_status"`
}

// WebhookResult maps a processed delivery onto an HTTP outcome.
type WebhookResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// StatusScope selects which rows a status update touches.
type StatusScope string

const (
	ScopeOrder   StatusScope = "order"
	ScopeItem    StatusScope = "item"
	ScopeAddress StatusScope = "address"
)

// UpdateStatusInput drives the manual status API. Exactly one scope applies:
// item when OrderItemID is set, address when AddressID is set, otherwise the
// whole order.
type UpdateStatusInput struct {
	OrderNumber string
	Status      enums.OrderStatus
	Notes       *string

	OrderItemID *uuid.UUID
	AddressID   *uuid.UUID

	ScheduledDate     *time.Time
	TechnicianName    *string
	TechnicianContact *string

	// User id; defaults to "system" when empty.
	ChangedBy string
}

// UpdateStatusResult reports the applied change and the recomputed
// order-level status.
type UpdateStatusResult struct {
	OrderNumber  string            `json:"order_number"`
	Scope        StatusScope       `json:"scope"`
	Status       enums.OrderStatus `json:"status"`
	OrderStatus  enums.OrderStatus `json:"order_status"`
	UpdatedItems int               `json:"updated_items"`
}

// OrderSummary is one order in the post-confirmation list view, grouped per
// product bundle with snapshot-sourced recipient data.
type OrderSummary struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	OrderStatus enums.OrderStatus `json:"order_status"`
	TotalPaise  int64             `json:"total_amount"`
	CreatedAt   time.Time         `json:"created_at"`
	Groups      []OrderGroup      `json:"groups"`
}

// OrderGroup is one product bundle inside an order.
type OrderGroup struct {
	GroupID     string           `json:"group_id"`
	ProductName string           `json:"product_name"`
	PlanType    string           `json:"plan_type"`
	Items       []OrderGroupItem `json:"items"`
}

// OrderGroupItem is one recipient line inside a bundle.
type OrderGroupItem struct {
	OrderItemID uuid.UUID         `json:"order_item_id"`
	MemberName  string            `json:"member_name"`
	City        string            `json:"city"`
	Status      enums.OrderStatus `json:"status"`
}

// TrackingResult is the per-item tracking payload for a confirmed order.
type TrackingResult struct {
	OrderNumber string            `json:"order_number"`
	OrderStatus enums.OrderStatus `json:"order_status"`
	Items       []TrackingItem    `json:"items"`
}

// TrackingItem carries one item's current state and its audit trail.
type TrackingItem struct {
	OrderItemID uuid.UUID         `json:"order_item_id"`
	MemberName  string            `json:"member_name"`
	Status      enums.OrderStatus `json:"status"`
	History     []TrackingEvent   `json:"history"`
}

// TrackingEvent is one audit row rendered for tracking.
type TrackingEvent struct {
	Status    enums.OrderStatus `json:"status"`
	Notes     *string           `json:"notes,omitempty"`
	ChangedBy *string           `json:"changed_by,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}
