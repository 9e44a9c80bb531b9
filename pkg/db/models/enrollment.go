package models

import (
	"time"

	"github.com/google/uuid"
)

// Enrollment tracks which member has been enrolled for which test, keyed by
// (user, member, product). Confirmed orders upsert into this table.
type Enrollment struct {
	ID       uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID   uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index;uniqueIndex:idx_enrollment_identity"`
	MemberID uuid.UUID  `gorm:"column:member_id;type:uuid;not null;index;uniqueIndex:idx_enrollment_identity"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index;uniqueIndex:idx_enrollment_identity"`
	OrderID  *uuid.UUID `gorm:"column:order_id;type:uuid;index"`

	// Denormalized for lookups that outlive member edits.
	MemberName   string  `gorm:"column:member_name;not null"`
	MemberMobile string  `gorm:"column:member_mobile;not null;index"`
	PlanType     *string `gorm:"column:plan_type;index"`

	HasTakenTest bool `gorm:"column:has_taken_test;not null;default:false;index"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
