package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Friend is a one-directional link from the owner (UserID) to another user
type Friend struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index:idx_user_friend,unique"` // owner
	FriendUserID uuid.UUID `gorm:"type:uuid;not null;index:idx_user_friend,unique"`
	Nickname     string    `gorm:"size:64"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`

	User       User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;"`
	FriendUser User `gorm:"foreignKey:FriendUserID;constraint:OnDelete:CASCADE;"`
}

func (f *Friend) BeforeCreate(_ *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
