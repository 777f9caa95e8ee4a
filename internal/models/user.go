package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Email          string
	FullName       string
	HashedPassword string
}

type Role struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Name      string
}

// Profile is the current-user view: roles are re-read from the store,
// not taken from token claims, so they reflect later role changes
type Profile struct {
	ID       uuid.UUID
	Email    string
	Username string
	FullName string
	Roles    []string
}
