package userctx

import (
	"context"
	"slices"

	"github.com/Nirob-Barman/ShopSphere/internal/models"
)

type ctxKey string

const (
	userKey  ctxKey = "user"
	rolesKey ctxKey = "roles"
)

// New creates a context carrying the authenticated user and the role
// claims of the token it presented
func New(ctx context.Context, u models.User, roles []string) context.Context {
	ctx = context.WithValue(ctx, userKey, u)
	return context.WithValue(ctx, rolesKey, roles)
}

// FromContext extracts the authenticated user
func FromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey).(models.User)
	return u, ok
}

// HasRole reports whether the token carried the role claim.
// Role names compare as-is: claims are written from stored role names.
func HasRole(ctx context.Context, role string) bool {
	roles, ok := ctx.Value(rolesKey).([]string)
	return ok && slices.Contains(roles, role)
}
