package repository

import (
	"context"

	"sodalis/model"

	"gorm.io/gorm"
)

type RoleRepository interface {
	GetByCode(ctx context.Context, code string) (*model.Role, error)
	// EnsureRole creates the role if no role with the same code exists
	EnsureRole(ctx context.Context, role *model.Role) error
}

type pgRoleRepo struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &pgRoleRepo{db: db}
}

func (r *pgRoleRepo) GetByCode(ctx context.Context, code string) (*model.Role, error) {
	var role model.Role
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&role).Error; err != nil {
		return nil, translate(err)
	}
	return &role, nil
}

func (r *pgRoleRepo) EnsureRole(ctx context.Context, role *model.Role) error {
	return translate(r.db.WithContext(ctx).Where(model.Role{Code: role.Code}).FirstOrCreate(role).Error)
}
