package models

import (
	"time"

	"github.com/google/uuid"
)

// Address is a delivery address for sample collection visits.
type Address struct {
	ID     uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`

	Label         *string `gorm:"column:label"`
	StreetAddress string  `gorm:"column:street_address;not null"`
	City          string  `gorm:"column:city;not null"`
	State         string  `gorm:"column:state;not null"`
	PostalCode    string  `gorm:"column:postal_code;not null"`

	IsDeleted bool `gorm:"column:is_deleted;not null;default:false;index"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
