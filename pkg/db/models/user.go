package models

import (
	"time"

	"github.com/google/uuid"
)

// User carries the identity fields the order pipeline reads.
type User struct {
	ID uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`

	Name   string  `gorm:"column:name;not null"`
	Mobile string  `gorm:"column:mobile;uniqueIndex;not null"`
	Email  *string `gorm:"column:email;index"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
