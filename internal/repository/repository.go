package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Nirob-Barman/ShopSphere/internal/models"
)

// User repository interface (credential store)
type UserRepo interface {
	// Create user
	// If user with the same email exists already has to return apperrors.ErrUserAlreadyExists
	// Email comparison is case-insensitive
	CreateUser(ctx context.Context, email string, fullName string, hashedPassword string) (models.User, error)

	// Get user by id or normalized email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	// Replace the stored password hash
	SetPassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error
}

// Role repository interface
type RoleRepo interface {
	// Create role. Duplicate names (case-insensitive) return apperrors.ErrRoleAlreadyExists
	CreateRole(ctx context.Context, name string) (models.Role, error)

	// Get role by name, case-insensitive
	// If role not found must return apperrors.ErrRoleNotFound
	GetRoleByName(ctx context.Context, name string) (models.Role, error)

	// Delete role. Must return apperrors.ErrRoleNotFound if absent
	DeleteRole(ctx context.Context, roleID uuid.UUID) error

	// Membership
	AssignToUser(ctx context.Context, userID uuid.UUID, roleID uuid.UUID) error
	RemoveFromUser(ctx context.Context, userID uuid.UUID, roleID uuid.UUID) error
	UserRoles(ctx context.Context, userID uuid.UUID) ([]string, error)
	CountUsersInRole(ctx context.Context, roleID uuid.UUID) (int, error)
}

// RefreshToken repository interface (the ledger)
type RefreshTokenRepo interface {
	// Save new token row
	Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error)

	// Return the token row even if it is used, revoked or expired
	// If absent must return apperrors.ErrRefreshTokenNotFound
	Get(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// Redeem atomically marks the token used, but only if it is not used,
	// not revoked and not expired at the given instant. Any other state,
	// including an unknown token, must return apperrors.ErrRefreshTokenInvalid
	// so callers can not tell the conditions apart. At most one concurrent
	// caller may succeed per token.
	Redeem(ctx context.Context, tokenString string, now time.Time) (models.RefreshToken, error)

	// Revoke marks the token revoked. Revoking an already revoked token is
	// not an error. Unknown tokens return apperrors.ErrRefreshTokenNotFound
	Revoke(ctx context.Context, tokenString string) error
}

// Login audit repository interface, append-only
type LoginAuditRepo interface {
	Save(ctx context.Context, audit models.LoginAudit) (models.LoginAudit, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.LoginAudit, error)
}

// Password reset token repository interface
type PasswordResetRepo interface {
	Save(ctx context.Context, token models.PasswordResetToken) error

	// Consume deletes the token row and returns it, but only if it belongs
	// to the user and is not expired. Must return apperrors.ErrResetTokenInvalid
	// otherwise. Deletion and check happen in one statement so a token can
	// never be consumed twice.
	Consume(ctx context.Context, tokenString string, userID uuid.UUID, now time.Time) (models.PasswordResetToken, error)
}

// Storage aggregates all repositories over a single connection or transaction
type Storage interface {
	User() UserRepo
	Role() RoleRepo
	Refresh() RefreshTokenRepo
	LoginAudit() LoginAuditRepo
	PasswordReset() PasswordResetRepo

	// InTx runs fn with a Storage bound to one database transaction.
	// The transaction commits iff fn returns nil, otherwise every write
	// in the boundary rolls back.
	InTx(ctx context.Context, fn func(s Storage) error) error
}
