package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nucleotide-health/nucleotide-backend/pkg/enums"
)

// OrderStatusHistory is the append-only ledger of order and item status
// changes. OrderItemID is nil for order-level entries.
type OrderStatusHistory struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	OrderItemID *uuid.UUID `gorm:"column:order_item_id;type:uuid;index"`

	Status         enums.OrderStatus  `gorm:"column:status;type:text;not null;index"`
	PreviousStatus *enums.OrderStatus `gorm:"column:previous_status;type:text"`

	Notes *string `gorm:"column:notes"`
	// User id or "system".
	ChangedBy *string `gorm:"column:changed_by"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index"`
}
