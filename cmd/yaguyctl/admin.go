package main

import (
	"context"
	"fmt"
	"strings"

	"askyaguy/internal/domain"
	"askyaguy/internal/services"
	"askyaguy/internal/util"
	apperrors "askyaguy/pkg/errors"
)

// adminUsers is the user persistence create-admin needs
type adminUsers interface {
	services.UserStore
	SetRole(ctx context.Context, id string, role domain.Role) error
}

// ensureAdmin creates an admin account for email, or promotes the existing
// user. It reports whether a new account was created.
func ensureAdmin(ctx context.Context, users adminUsers, email, password, name string) (bool, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return false, fmt.Errorf("email is required")
	}

	existing, err := users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.IsAdmin() {
			return false, nil
		}
		return false, users.SetRole(ctx, existing.ID, domain.RoleAdmin)
	case !apperrors.IsNotFound(err):
		return false, err
	}

	if len(password) < util.MinPasswordLength {
		return false, fmt.Errorf("password must be at least %d characters", util.MinPasswordLength)
	}
	hash, err := util.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:         email,
		PasswordHash:  hash,
		Role:          domain.RoleAdmin,
		EmailVerified: true,
	}
	if name = strings.TrimSpace(name); name != "" {
		user.Name = &name
	}
	if err := users.Create(ctx, user); err != nil {
		return false, err
	}
	return true, nil
}
