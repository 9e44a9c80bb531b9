package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nucleotide-health/nucleotide-backend/pkg/types"
)

// OrderSnapshot captures product, member, address and cart-item state as of
// order-build time, one per item. Written once, never updated.
type OrderSnapshot struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`

	ProductData  types.JSONMap  `gorm:"column:product_data;type:jsonb;serializer:json;not null"`
	MemberData   types.JSONMap  `gorm:"column:member_data;type:jsonb;serializer:json;not null"`
	AddressData  types.JSONMap  `gorm:"column:address_data;type:jsonb;serializer:json;not null"`
	CartItemData *types.JSONMap `gorm:"column:cart_item_data;type:jsonb;serializer:json"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
