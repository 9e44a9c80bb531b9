package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nucleotide-health/nucleotide-backend/pkg/enums"
)

// Payment is one gateway payment attempt for an order. Retries append a
// fresh row; earlier attempts stay for audit.
type Payment struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`

	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:text;not null;default:'razorpay'"`
	Status        enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'pending';index"`

	RazorpayOrderID   *string `gorm:"column:razorpay_order_id;index"`
	RazorpayPaymentID *string `gorm:"column:razorpay_payment_id;index"`
	RazorpaySignature *string `gorm:"column:razorpay_signature"`

	AmountPaise int64   `gorm:"column:amount_paise;not null"`
	Currency    string  `gorm:"column:currency;not null;default:'INR'"`
	Notes       *string `gorm:"column:notes"`

	Transitions []PaymentTransition `gorm:"foreignKey:PaymentID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
