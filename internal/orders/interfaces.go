package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/nucleotide-health/nucleotide-backend/pkg/db/models"
	"github.com/nucleotide-health/nucleotide-backend/pkg/enums"
	"github.com/nucleotide-health/nucleotide-backend/pkg/razorpay"
	"gorm.io/gorm"
)

// Repository defines persistence operations for the order aggregate.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	CreateSnapshot(ctx context.Context, snapshot *models.OrderSnapshot) (*models.OrderSnapshot, error)
	CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	CreatePaymentTransition(ctx context.Context, transition *models.PaymentTransition) error
	CreateStatusHistory(ctx context.Context, entry *models.OrderStatusHistory) error

	FindOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindOrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	// FindOrderForUpdate loads the order under a row-level lock. Must run
	// inside a transaction.
	FindOrderForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindReusableOrder(ctx context.Context, userID uuid.UUID) (*models.Order, error)
	FindItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	FindSnapshotsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderSnapshot, error)
	FindHistoryByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error)

	FindLatestPaymentByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, error)
	FindLatestPaymentByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Payment, error)

	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	UpdateOrderItem(ctx context.Context, itemID uuid.UUID, updates map[string]any) error
	UpdateOrderItemsByOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	UpdatePayment(ctx context.Context, paymentID uuid.UUID, updates map[string]any) error

	CreateWebhookLog(ctx context.Context, log *models.WebhookLog) (*models.WebhookLog, error)
	UpdateWebhookLog(ctx context.Context, logID uuid.UUID, updates map[string]any) error

	ListConfirmedOrdersForUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListConfirmedOrdersWithLiveCart(ctx context.Context, limit int) ([]models.Order, error)

	FindProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
	FindMembersByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Member, error)
	FindAddressesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Address, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CartService is the slice of the cart collaborator the order pipeline uses.
type CartService interface {
	LiveItems(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error)
	AppliedCoupon(ctx context.Context, userID uuid.UUID) (*models.CouponApplication, error)
	// ClearCart soft-deletes every live item of the cart and removes the
	// coupon application, inside the caller's transaction.
	ClearCart(ctx context.Context, tx *gorm.DB, userID, cartID uuid.UUID) error
}

// CouponValidator re-validates an applied coupon against a fresh subtotal.
type CouponValidator interface {
	ValidateAndDiscount(ctx context.Context, code string, userID uuid.UUID, subtotalPaise int64) (int64, error)
}

// EnrollmentService records test participants for confirmed orders.
type EnrollmentService interface {
	Upsert(ctx context.Context, tx *gorm.DB, input EnrollmentInput) error
}

// EnrollmentInput carries the snapshot-derived identity of one participant.
type EnrollmentInput struct {
	UserID    uuid.UUID
	MemberID  uuid.UUID
	ProductID uuid.UUID
	OrderID   uuid.UUID

	MemberName   string
	MemberMobile string
	PlanType     *string
}

// GatewayClient is the outbound payment gateway surface the builder needs.
type GatewayClient interface {
	CreateOrder(ctx context.Context, amountPaise int64, currency, receipt string, notes map[string]string) (*razorpay.Order, error)
}

// Service defines the order payment reconciliation operations.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error)
	VerifyPayment(ctx context.Context, input VerifyPaymentInput) (*VerifyPaymentResult, error)
	ProcessWebhook(ctx context.Context, body []byte, signature string) (*WebhookResult, error)
	MarkPaymentFailed(ctx context.Context, orderID uuid.UUID, reason string, trigger enums.TransitionTrigger) error
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*UpdateStatusResult, error)
	ListOrders(ctx context.Context, userID uuid.UUID) ([]OrderSummary, error)
	Tracking(ctx context.Context, userID uuid.UUID, orderNumber string) (*TrackingResult, error)
	ReconcileConfirmedCarts(ctx context.Context, batchSize int) (int, error)
}
