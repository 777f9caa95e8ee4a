package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/Nirob-Barman/ShopSphere/internal/handlers/middleware"
	"github.com/Nirob-Barman/ShopSphere/internal/logger"
	"github.com/Nirob-Barman/ShopSphere/internal/models"
	"github.com/Nirob-Barman/ShopSphere/internal/service/auth"
	"github.com/Nirob-Barman/ShopSphere/internal/service/auth/tokenmanager"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(authService authService, logger logger.Logger) http.Handler {
	authMiddleware := middleware.Auth(authService)
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}
	withAdmin := func(h http.Handler) http.Handler {
		return chain(h, authMiddleware, middleware.RequireRole(auth.AdminRoleName))
	}

	apiauth := http.NewServeMux()
	apiauth.Handle("POST /register", handleRegister(authService, logger))
	apiauth.Handle("POST /login", handleLogin(authService, logger))
	apiauth.Handle("POST /refresh-token", handleTokenRefresh(authService, logger))
	apiauth.Handle("POST /logout", withAuth(handleLogout(authService, logger)))
	apiauth.Handle("POST /request-password-reset", handleRequestPasswordReset(authService, logger))
	apiauth.Handle("POST /reset-password", handleResetPassword(authService, logger))
	apiauth.Handle("GET /me", withAuth(handleUserMe(authService)))

	apiadmin := http.NewServeMux()
	apiadmin.Handle("POST /create-role", handleCreateRole(authService, logger))
	apiadmin.Handle("POST /delete-role", handleDeleteRole(authService, logger))
	apiadmin.Handle("POST /assign-role", handleAssignRole(authService, logger))
	apiadmin.Handle("POST /remove-role", handleRemoveRole(authService, logger))

	root := http.NewServeMux()
	root.Handle("/api/auth/", http.StripPrefix("/api/auth", apiauth))
	root.Handle("/api/admin/", http.StripPrefix("/api/admin", withAdmin(apiadmin)))

	handler := chain(root,
		middleware.Logger(logger),
	)

	return handler
}

type authService interface {
	// Register user in a transaction, welcome email goes out after commit
	// Has to return apperrors.ErrUserAlreadyExists if the email is taken
	Register(ctx context.Context, p auth.RegisterParams) (models.User, error)

	// Login with email and password
	// Has to return apperrors.ErrUserNotFound or apperrors.ErrPasswordIncorrect
	Login(ctx context.Context, p auth.LoginParams) (auth.LoginResult, error)

	// Rotate tokens using a refresh secret
	// Invalid secrets of any kind return apperrors.ErrRefreshTokenInvalid
	RefreshPair(ctx context.Context, refresh string) (auth.LoginResult, error)

	// Revoke the refresh token. Idempotent on already revoked tokens
	Logout(ctx context.Context, refresh string) error

	// Verify access token and resolve its subject to a stored user
	Authenticate(ctx context.Context, access string) (models.User, tokenmanager.AccessTokenClaims, error)

	// Current-user view with roles re-read from the store
	Profile(ctx context.Context, userID uuid.UUID) (models.Profile, error)

	// Password reset flows
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, p auth.ResetPasswordParams) error

	// Role administration
	CreateRole(ctx context.Context, name string) (models.Role, error)
	DeleteRole(ctx context.Context, name string) error
	AssignRole(ctx context.Context, p auth.AssignRoleParams) (auth.RoleAssignment, error)
	RemoveRole(ctx context.Context, p auth.AssignRoleParams) (auth.RoleAssignment, error)
}
