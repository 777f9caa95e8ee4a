package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is a ledger row. The token string itself is the key.
// A token redeems iff !Used && !Revoked && now < ExpiresAt.
type RefreshToken struct {
	Token     string
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
	Used      bool
	Revoked   bool
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issued by AuthService on login and refresh
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
