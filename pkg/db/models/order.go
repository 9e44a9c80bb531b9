package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nucleotide-health/nucleotide-backend/pkg/enums"
)

// Order is the financial record produced from a cart at checkout. Rows are
// never hard-deleted.
type Order struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber string     `gorm:"column:order_number;uniqueIndex;not null"`
	UserID      uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	AddressID   *uuid.UUID `gorm:"column:address_id;type:uuid;index"`

	SubtotalPaise       int64   `gorm:"column:subtotal_paise;not null"`
	DeliveryChargePaise int64   `gorm:"column:delivery_charge_paise;not null;default:0"`
	DiscountPaise       int64   `gorm:"column:discount_paise;not null;default:0"`
	CouponCode          *string `gorm:"column:coupon_code;index"`
	CouponDiscountPaise int64   `gorm:"column:coupon_discount_paise;not null;default:0"`
	TotalPaise          int64   `gorm:"column:total_paise;not null"`

	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:text;not null;default:'razorpay'"`
	// Denormalized from the latest Payment row for cheap filtering.
	PaymentStatus     enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending';index"`
	RazorpayOrderID   *string             `gorm:"column:razorpay_order_id;uniqueIndex"`
	RazorpayPaymentID *string             `gorm:"column:razorpay_payment_id;uniqueIndex"`
	RazorpaySignature *string             `gorm:"column:razorpay_signature"`
	PaymentDate       *time.Time          `gorm:"column:payment_date"`

	OrderStatus     enums.OrderStatus `gorm:"column:order_status;type:text;not null;default:'pending_payment';index"`
	StatusUpdatedAt time.Time         `gorm:"column:status_updated_at;autoUpdateTime"`

	ScheduledDate     *time.Time `gorm:"column:scheduled_date"`
	TechnicianName    *string    `gorm:"column:technician_name"`
	TechnicianContact *string    `gorm:"column:technician_contact"`
	LabName           *string    `gorm:"column:lab_name"`

	Notes *string `gorm:"column:notes"`

	Items     []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Snapshots []OrderSnapshot `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Payments  []Payment       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
