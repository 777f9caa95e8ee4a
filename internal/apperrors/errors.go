package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	// Single error for absent, used, revoked and expired refresh tokens.
	// The caller must not learn which condition failed.
	ErrRefreshTokenInvalid  = errors.New("invalid refresh token")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")

	ErrRoleAlreadyExists = errors.New("role already exists")
	ErrRoleNotFound      = errors.New("role not found")
	ErrRoleProtected     = errors.New("role is protected and can not be deleted")
	ErrUserNotInRole     = errors.New("user is not assigned to role")

	ErrPasswordIncorrect   = errors.New("password is incorrect")
	ErrResetTokenInvalid   = errors.New("reset token is invalid or expired")
	ErrRegistrationFailed  = errors.New("registration failed")
	ErrAccessTokenInvalid  = errors.New("access token is invalid")
	ErrClaimSubjectMissing = errors.New("user id not found in token")
)

// ValidationError carries itemized messages for malformed client input
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Messages, " "))
}

// RoleInUseError reports how many users still hold a role that was asked to be deleted
type RoleInUseError struct {
	Role  string
	Users int
}

func (e *RoleInUseError) Error() string {
	return fmt.Sprintf("role '%s' can not be deleted: %d user(s) still assigned", e.Role, e.Users)
}
