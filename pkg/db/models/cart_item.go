package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one live cart line. Items sharing a GroupID form one bundle
// purchase (couple/family plans priced once per group). Clearing a cart
// soft-deletes its items so order snapshots keep their provenance.
type CartItem struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID    uuid.UUID `gorm:"column:cart_id;type:uuid;not null;index"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	AddressID uuid.UUID `gorm:"column:address_id;type:uuid;not null;index"`
	MemberID  uuid.UUID `gorm:"column:member_id;type:uuid;not null;index"`

	Quantity int    `gorm:"column:quantity;not null;default:1"`
	GroupID  string `gorm:"column:group_id;not null;index"`

	IsDeleted bool       `gorm:"column:is_deleted;not null;default:false;index"`
	DeletedAt *time.Time `gorm:"column:deleted_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
