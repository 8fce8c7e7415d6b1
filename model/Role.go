package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role codes end up in the "roles" claim of every access token
type Role struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"size:50;not null;uniqueIndex"`
	Code        string    `gorm:"size:50;not null;uniqueIndex"`
	Description string    `gorm:"size:255"`
	IsSystem    bool      `gorm:"default:false"` // seeded, cannot be deleted
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (r *Role) BeforeCreate(_ *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
