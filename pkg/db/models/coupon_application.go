package models

import (
	"time"

	"github.com/google/uuid"
)

// CouponApplication links an applied coupon to a user's cart, keeping the
// discount computed at application time.
type CouponApplication struct {
	ID       uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID   uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	CouponID uuid.UUID `gorm:"column:coupon_id;type:uuid;not null;index"`

	CouponCode          string `gorm:"column:coupon_code;not null;index"`
	DiscountAmountPaise int64  `gorm:"column:discount_amount_paise;not null;default:0"`

	AppliedAt time.Time `gorm:"column:applied_at;autoCreateTime"`
}
