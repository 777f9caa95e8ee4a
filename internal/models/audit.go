package models

import (
	"time"

	"github.com/google/uuid"
)

// LoginAudit is an append-only record of a successful login.
// Rows are never updated or deleted.
type LoginAudit struct {
	ID        int64
	UserID    uuid.UUID
	Email     string
	LoginTime time.Time
	IPAddress string
	UserAgent string
}
