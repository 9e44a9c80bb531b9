package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nucleotide-health/nucleotide-backend/pkg/enums"
)

// PaymentTransition is an append-only record of a payment status change.
// FromStatus is nil for the opening transition of a new attempt.
type PaymentTransition struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentID uuid.UUID `gorm:"column:payment_id;type:uuid;not null;index"`

	FromStatus *enums.PaymentStatus `gorm:"column:from_status;type:text"`
	ToStatus   enums.PaymentStatus  `gorm:"column:to_status;type:text;not null"`

	TransitionReason *string                 `gorm:"column:transition_reason"`
	TriggeredBy      enums.TransitionTrigger `gorm:"column:triggered_by;type:text;not null"`

	// Links the transition to the webhook delivery that caused it.
	WebhookLogID *uuid.UUID `gorm:"column:webhook_log_id;type:uuid;index"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index"`
}
