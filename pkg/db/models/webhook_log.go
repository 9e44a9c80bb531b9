package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nucleotide-health/nucleotide-backend/pkg/types"
)

// WebhookLog records every inbound gateway delivery before it is processed,
// including ones that fail signature verification.
type WebhookLog struct {
	ID uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`

	EventType string  `gorm:"column:event_type;not null;index"`
	EventID   *string `gorm:"column:event_id;index"`
	Payload   types.JSONMap `gorm:"column:payload;type:jsonb;serializer:json"`

	SignatureValid             bool    `gorm:"column:signature_valid;not null"`
	SignatureVerificationError *string `gorm:"column:signature_verification_error"`

	Processed       bool       `gorm:"column:processed;not null;default:false"`
	ProcessingError *string    `gorm:"column:processing_error"`
	ProcessedAt     *time.Time `gorm:"column:processed_at"`

	PaymentID         *uuid.UUID `gorm:"column:payment_id;type:uuid;index"`
	OrderID           *uuid.UUID `gorm:"column:order_id;type:uuid;index"`
	RazorpayOrderID   *string    `gorm:"column:razorpay_order_id;index"`
	RazorpayPaymentID *string    `gorm:"column:razorpay_payment_id;index"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index"`
}
