package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Credential struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_user_credential,unique"`
	Type      CredentialType `gorm:"size:50;not null;index:idx_user_credential,unique"`
	Value     string         `gorm:"type:text;not null"` // encoded hash incl. algorithm, salt and cost parameters
	Active    bool           `gorm:"default:true"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`

	User User `gorm:"foreignKey:UserID"`
}

var ErrInvalidCredentialType = errors.New("invalid credential type")

// Validate rejects credentials whose Value could not be interpreted later
func (c *Credential) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCredentialType, c.Type)
	}
	return nil
}

func (c *Credential) BeforeCreate(tx *gorm.DB) (err error) {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}
