package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Nirob-Barman/ShopSphere/internal/apperrors"
	"github.com/Nirob-Barman/ShopSphere/internal/models"
)

// AdminRoleName can never be deleted, whatever its casing
const AdminRoleName = "Admin"

func (s *AuthService) CreateRole(ctx context.Context, name string) (models.Role, error) {
	if err := requiredField(name, "Role name"); err != nil {
		return models.Role{}, err
	}

	return s.storage.Role().CreateRole(ctx, name)
}

// DeleteRole removes an empty role. The Admin role is refused
// unconditionally, a role still held by users is refused with the count.
func (s *AuthService) DeleteRole(ctx context.Context, name string) error {
	if err := requiredField(name, "Role name"); err != nil {
		return err
	}

	if strings.EqualFold(name, AdminRoleName) {
		return apperrors.ErrRoleProtected
	}

	role, err := s.storage.Role().GetRoleByName(ctx, name)
	if err != nil {
		return err
	}

	users, err := s.storage.Role().CountUsersInRole(ctx, role.ID)
	if err != nil {
		return err
	}
	if users > 0 {
		return &apperrors.RoleInUseError{Role: role.Name, Users: users}
	}

	return s.storage.Role().DeleteRole(ctx, role.ID)
}

// RoleAssignment names the user and role a successful assign returns
type RoleAssignment struct {
	UserID   uuid.UUID
	RoleName string
}

func (s *AuthService) AssignRole(ctx context.Context, p AssignRoleParams) (RoleAssignment, error) {
	user, role, err := s.resolveUserAndRole(ctx, p)
	if err != nil {
		return RoleAssignment{}, err
	}

	if err := s.storage.Role().AssignToUser(ctx, user.ID, role.ID); err != nil {
		return RoleAssignment{}, err
	}

	return RoleAssignment{UserID: user.ID, RoleName: role.Name}, nil
}

// RemoveRole requires the user to actually hold the role, removing a role
// the user does not have is an error, not a silent no-op
func (s *AuthService) RemoveRole(ctx context.Context, p AssignRoleParams) (RoleAssignment, error) {
	user, role, err := s.resolveUserAndRole(ctx, p)
	if err != nil {
		return RoleAssignment{}, err
	}

	if err := s.storage.Role().RemoveFromUser(ctx, user.ID, role.ID); err != nil {
		return RoleAssignment{}, err
	}

	return RoleAssignment{UserID: user.ID, RoleName: role.Name}, nil
}

func (s *AuthService) resolveUserAndRole(ctx context.Context, p AssignRoleParams) (models.User, models.Role, error) {
	if err := checkParams(p); err != nil {
		return models.User{}, models.Role{}, err
	}

	userID, err := uuid.Parse(p.UserID)
	if err != nil {
		return models.User{}, models.Role{}, apperrors.ErrUserNotFound
	}

	user, err := s.storage.User().GetUserByID(ctx, userID)
	if err != nil {
		return models.User{}, models.Role{}, err
	}

	role, err := s.storage.Role().GetRoleByName(ctx, p.RoleName)
	if err != nil {
		return models.User{}, models.Role{}, err
	}

	return user, role, nil
}
