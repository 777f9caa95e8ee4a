package models

import (
	"time"

	"github.com/google/uuid"
)

// PasswordResetToken is a one-time secret issued on password reset request.
// Consuming it deletes the row, so it can never verify twice.
type PasswordResetToken struct {
	Token     string
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
}
