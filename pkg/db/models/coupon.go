package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nucleotide-health/nucleotide-backend/pkg/enums"
)

// Coupon is a discount code. DiscountValue is a percentage (0-100) for
// percentage coupons and paise for fixed ones.
type Coupon struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code        string    `gorm:"column:code;uniqueIndex;not null"`
	Description *string   `gorm:"column:description"`

	DiscountType  enums.CouponType `gorm:"column:discount_type;type:text;not null;default:'percentage'"`
	DiscountValue int64            `gorm:"column:discount_value;not null"`

	MinOrderAmountPaise int64  `gorm:"column:min_order_amount_paise;not null;default:0"`
	MaxDiscountPaise    *int64 `gorm:"column:max_discount_paise"`

	MaxUses        *int `gorm:"column:max_uses"`
	MaxUsesPerUser int  `gorm:"column:max_uses_per_user;not null;default:1"`

	ValidFrom  time.Time `gorm:"column:valid_from;not null"`
	ValidUntil time.Time `gorm:"column:valid_until;not null"`

	Active bool `gorm:"column:active;not null;default:true;index"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
