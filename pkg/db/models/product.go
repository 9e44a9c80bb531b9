package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is the slice of the catalog the order pipeline needs: list price,
// selling price and plan shape.
type Product struct {
	ID   uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name string    `gorm:"column:name;not null"`

	PricePaise        int64 `gorm:"column:price_paise;not null"`
	SpecialPricePaise int64 `gorm:"column:special_price_paise;not null"`

	// "single", "couple" or "family".
	PlanType string  `gorm:"column:plan_type;not null;default:'single'"`
	Category *string `gorm:"column:category"`

	IsActive bool `gorm:"column:is_active;not null;default:true;index"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
