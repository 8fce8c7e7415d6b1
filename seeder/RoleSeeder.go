package seeder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"sodalis/auth"
	"sodalis/model"
	"sodalis/repository"
	"sodalis/util"
)

// DefaultRoles are the role codes the authorization gate and registration rely on
func DefaultRoles() []model.Role {
	return []model.Role{
		{
			Name:        "Administrator",
			Code:        auth.RoleAdmin,
			Description: "May read and change every user's goals and friends",
			IsSystem:    true,
		},
		{
			Name:        "User",
			Code:        auth.RoleUser,
			Description: "Standard registered user",
			IsSystem:    true,
		},
	}
}

// SeedRoles creates the default roles that do not exist yet
func SeedRoles(ctx context.Context, roles repository.RoleRepository, logger *slog.Logger) error {
	logger.Info("seeding roles")

	var errs []error
	for _, role := range DefaultRoles() {
		if err := roles.EnsureRole(ctx, &role); err != nil {
			errs = append(errs, fmt.Errorf("seed role %s: %w", role.Code, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	logger.Info("role seeding completed")
	return nil
}

// SeedAdmin creates an administrator account unless the email is already registered
func SeedAdmin(ctx context.Context, users repository.UserRepository, roles repository.RoleRepository, email, password string, logger *slog.Logger) error {
	email = auth.NormalizeIdentifier(email)

	if _, err := users.GetByEmail(ctx, email); err == nil {
		logger.Info("admin account already present", "email", email)
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	var assigned []model.Role
	for _, code := range []string{auth.RoleAdmin, auth.RoleUser} {
		role, err := roles.GetByCode(ctx, code)
		if err != nil {
			return fmt.Errorf("role %s: %w", code, err)
		}
		assigned = append(assigned, *role)
	}

	hashed, err := util.HashPassword(password)
	if err != nil {
		return err
	}

	admin := &model.User{
		Name:  "Administrator",
		Email: email,
		Roles: assigned,
		Credentials: []model.Credential{{
			Type:   model.CredTypePassword,
			Value:  hashed,
			Active: true,
		}},
	}
	if err := users.Create(ctx, admin); err != nil {
		return err
	}

	logger.Info("admin account created", "user_id", admin.ID.String())
	return nil
}
