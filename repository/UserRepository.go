package repository

import (
	"context"
	"errors"

	"sodalis/auth"
	"sodalis/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	auth.CredentialStore

	// Create persists the user, its role links and its credentials in one transaction
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

type pgUserRepo struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &pgUserRepo{db: db}
}

func (r *pgUserRepo) Create(ctx context.Context, user *model.User) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(user).Error
	}))
}

func (r *pgUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Preload("Roles").First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *pgUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Preload("Roles").Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// LookupCredential implements auth.CredentialStore
func (r *pgUserRepo) LookupCredential(ctx context.Context, identifier string) (*auth.StoredCredential, error) {
	var u model.User
	err := r.db.WithContext(ctx).
		Preload("Roles").
		Preload("Credentials", "type = ? AND active = ?", model.CredTypePassword, true).
		Where("email = ?", identifier).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrCredentialNotFound
		}
		return nil, err
	}

	cred := u.PasswordCredential()
	if cred == nil {
		return nil, auth.ErrCredentialNotFound
	}

	return &auth.StoredCredential{
		UserID:       u.ID.String(),
		Email:        u.Email,
		PasswordHash: cred.Value,
		Roles:        u.RoleCodes(),
		Claims:       map[string]string{"name": u.Name},
	}, nil
}
