package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"size:50;not null"`
	Email     string    `gorm:"size:128;not null;uniqueIndex"` // stored lower-cased
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Credentials   []Credential   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;"`
	RefreshTokens []RefreshToken `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;"`
	Roles         []Role         `gorm:"many2many:user_roles;constraint:OnDelete:CASCADE;"`
}

func (u *User) BeforeCreate(_ *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}

// RoleCodes flattens the preloaded roles for token claims
func (u *User) RoleCodes() []string {
	codes := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		codes = append(codes, r.Code)
	}
	return codes
}

// PasswordCredential returns the active password credential, if preloaded
func (u *User) PasswordCredential() *Credential {
	for i := range u.Credentials {
		c := &u.Credentials[i]
		if c.Type == CredTypePassword && c.Active {
			return c
		}
	}
	return nil
}
