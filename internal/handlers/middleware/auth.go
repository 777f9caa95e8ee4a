package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Nirob-Barman/ShopSphere/internal/apperrors"
	"github.com/Nirob-Barman/ShopSphere/internal/handlers/render"
	"github.com/Nirob-Barman/ShopSphere/internal/handlers/userctx"
	"github.com/Nirob-Barman/ShopSphere/internal/models"
	"github.com/Nirob-Barman/ShopSphere/internal/service/auth/tokenmanager"
)

const bearerScheme = "Bearer"

type authService interface {
	Authenticate(ctx context.Context, access string) (models.User, tokenmanager.AccessTokenClaims, error)
}

// Auth verifies the bearer access token and stores the user plus the
// token's role claims in the request context
func Auth(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access, ok := bearerToken(r)
			if !ok {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			user, claims, err := as.Authenticate(r.Context(), access)
			switch {
			case errors.Is(err, apperrors.ErrUserNotFound):
				// The token may outlive its subject, that is not an auth failure
				render.ServiceError(w, "User not found.", http.StatusNotFound)
				return
			case err != nil:
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := userctx.New(r.Context(), user, claims.Roles)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole guards handlers behind a role claim, e.g. the admin surface
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !userctx.HasRole(r.Context(), role) {
				render.ServiceError(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) || token == "" {
		return "", false
	}
	return token, true
}
