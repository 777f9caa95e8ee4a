package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/Nirob-Barman/ShopSphere/internal/apperrors"
	"github.com/Nirob-Barman/ShopSphere/internal/repository"
)

const (
	DefaultAdminEmail    = "admin@shopsphere.com"
	defaultAdminPassword = "Admin@123"
	defaultAdminFullName = "Admin"
)

// DefaultRoles exist on every start
var DefaultRoles = []string{AdminRoleName, "Seller", "Customer"}

// SeedDefaultRolesAndAdmin ensures the fixed role set and the default
// administrator account exist. Safe to run on every process start.
func (s *AuthService) SeedDefaultRolesAndAdmin(ctx context.Context) error {
	for _, name := range DefaultRoles {
		_, err := s.storage.Role().GetRoleByName(ctx, name)
		if err == nil {
			continue
		}
		if !errors.Is(err, apperrors.ErrRoleNotFound) {
			return err
		}

		_, err = s.storage.Role().CreateRole(ctx, name)
		if err != nil && !errors.Is(err, apperrors.ErrRoleAlreadyExists) {
			return fmt.Errorf("error while seeding role %q. Err: %w", name, err)
		}
	}

	_, err := s.storage.User().GetUserByEmail(ctx, DefaultAdminEmail)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, apperrors.ErrUserNotFound):
		return err
	}

	hash, err := s.hasher.Hash(defaultAdminPassword)
	if err != nil {
		return err
	}

	return s.storage.InTx(ctx, func(tx repository.Storage) error {
		admin, err := tx.User().CreateUser(ctx, DefaultAdminEmail, defaultAdminFullName, hash)
		if err != nil {
			// Concurrent start won the race, nothing left to do
			if errors.Is(err, apperrors.ErrUserAlreadyExists) {
				return nil
			}
			return err
		}

		role, err := tx.Role().GetRoleByName(ctx, AdminRoleName)
		if err != nil {
			return err
		}

		return tx.Role().AssignToUser(ctx, admin.ID, role.ID)
	})
}
