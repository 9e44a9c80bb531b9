package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nucleotide-health/nucleotide-backend/pkg/enums"
)

// OrderItem is one (product, member, address) line inside an order. The
// foreign keys are nullable on purpose: catalog, member or address rows may
// be deleted later, the snapshot preserves what was ordered.
type OrderItem struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID   uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID *uuid.UUID `gorm:"column:product_id;type:uuid;index"`
	MemberID  *uuid.UUID `gorm:"column:member_id;type:uuid;index"`
	AddressID *uuid.UUID `gorm:"column:address_id;type:uuid;index"`

	SnapshotID *uuid.UUID `gorm:"column:snapshot_id;type:uuid"`

	Quantity int `gorm:"column:quantity;not null;default:1"`
	// Captured at order-build time, immutable afterwards.
	UnitPricePaise  int64 `gorm:"column:unit_price_paise;not null"`
	TotalPricePaise int64 `gorm:"column:total_price_paise;not null"`

	OrderStatus     enums.OrderStatus `gorm:"column:order_status;type:text;not null;default:'pending_payment';index"`
	StatusUpdatedAt time.Time         `gorm:"column:status_updated_at;autoUpdateTime"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
