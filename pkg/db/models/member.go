package models

import (
	"time"

	"github.com/google/uuid"
)

// Member is a test recipient belonging to a user account.
type Member struct {
	ID     uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`

	Name     string  `gorm:"column:name;not null"`
	Relation *string `gorm:"column:relation"`
	Age      *int    `gorm:"column:age"`
	Gender   *string `gorm:"column:gender"`
	Mobile   *string `gorm:"column:mobile;index"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
