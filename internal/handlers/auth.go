package handlers

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Nirob-Barman/ShopSphere/internal/apperrors"
	"github.com/Nirob-Barman/ShopSphere/internal/handlers/render"
	"github.com/Nirob-Barman/ShopSphere/internal/handlers/userctx"
	"github.com/Nirob-Barman/ShopSphere/internal/logger"
	"github.com/Nirob-Barman/ShopSphere/internal/service/auth"
)

func handleRegister(as authService, l logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
		Role     string `json:"role"`
	}
	type response struct {
		Email    string `json:"email"`
		FullName string `json:"full_name"`
		Role     string `json:"role"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.Bind[request](w, r)
		if err != nil {
			return
		}

		user, err := as.Register(r.Context(), auth.RegisterParams{
			Email:    data.Email,
			Password: data.Password,
			FullName: data.FullName,
			Role:     data.Role,
		})
		if err != nil {
			var validationErr *apperrors.ValidationError
			switch {
			case errors.As(err, &validationErr):
				render.ValidationMessages(w, validationErr.Messages)
			case errors.Is(err, apperrors.ErrUserAlreadyExists):
				render.ServiceErrorDetails(w, "Registration failed",
					[]string{"A user with this email already exists."}, http.StatusConflict)
			case errors.Is(err, apperrors.ErrRegistrationFailed):
				render.ServiceErrorDetails(w, "Registration failed",
					[]string{err.Error()}, http.StatusBadRequest)
			default:
				l.Error("registration failed", "error", err.Error())
				render.ServiceError(w, "An error occurred during registration.", http.StatusInternalServerError)
			}
			return
		}

		render.Created(w, "User registered successfully", response{
			Email:    user.Email,
			FullName: user.FullName,
			Role:     data.Role,
		})
	})
}

// authResponse is the token payload returned by login and refresh
type authResponse struct {
	AccessToken          string    `json:"access_token"`
	AccessTokenExpiresAt time.Time `json:"access_token_expires_at"`
	RefreshToken         string    `json:"refresh_token"`
	Email                string    `json:"email"`
	Role                 string    `json:"role"`
}

func newAuthResponse(result auth.LoginResult) authResponse {
	role := "Customer"
	if len(result.Roles) > 0 {
		role = result.Roles[0]
	}

	return authResponse{
		AccessToken:          result.Pair.Access.Value,
		AccessTokenExpiresAt: result.Pair.Access.ExpiresAt,
		RefreshToken:         result.Pair.Refresh.Value,
		Email:                result.User.Email,
		Role:                 role,
	}
}

func handleLogin(as authService, l logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.Bind[request](w, r)
		if err != nil {
			return
		}

		result, err := as.Login(r.Context(), auth.LoginParams{
			Email:     data.Email,
			Password:  data.Password,
			IPAddress: clientIP(r),
			UserAgent: r.UserAgent(),
		})
		if err != nil {
			var validationErr *apperrors.ValidationError
			switch {
			case errors.As(err, &validationErr):
				render.ValidationMessages(w, validationErr.Messages)
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "Email not found", http.StatusNotFound)
			case errors.Is(err, apperrors.ErrPasswordIncorrect):
				render.ServiceError(w, "Password is incorrect", http.StatusUnauthorized)
			default:
				l.Error("login failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.Success(w, "User Logged In successfully", newAuthResponse(result))
	})
}

func handleTokenRefresh(as authService, l logger.Logger) http.Handler {
	type request struct {
		RefreshToken string `json:"refresh_token"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.Bind[request](w, r)
		if err != nil {
			return
		}

		result, err := as.RefreshPair(r.Context(), data.RefreshToken)
		if err != nil {
			var validationErr *apperrors.ValidationError
			switch {
			case errors.As(err, &validationErr):
				render.ValidationMessages(w, validationErr.Messages)
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "User not found", http.StatusUnauthorized)
			case errors.Is(err, apperrors.ErrRefreshTokenInvalid):
				// One message for absent, used, revoked and expired tokens
				render.ServiceError(w, "Invalid refresh token", http.StatusUnauthorized)
			default:
				l.Error("token refresh failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.Success(w, "Tokens refreshed successfully", newAuthResponse(result))
	})
}

func handleLogout(as authService, l logger.Logger) http.Handler {
	type request struct {
		RefreshToken string `json:"refresh_token"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.Bind[request](w, r)
		if err != nil {
			return
		}

		err = as.Logout(r.Context(), data.RefreshToken)
		if err != nil {
			var validationErr *apperrors.ValidationError
			switch {
			case errors.As(err, &validationErr):
				render.ValidationMessages(w, validationErr.Messages)
			case errors.Is(err, apperrors.ErrRefreshTokenNotFound):
				render.ServiceError(w, "Refresh token not found", http.StatusNotFound)
			default:
				l.Error("logout failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.Success(w, "Logout successful", nil)
	})
}

func handleUserMe(as authService) http.Handler {
	type response struct {
		ID       uuid.UUID `json:"id"`
		Email    string    `json:"email"`
		Username string    `json:"username"`
		FullName string    `json:"full_name"`
		Roles    []string  `json:"roles"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		profile, err := as.Profile(r.Context(), user.ID)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "User not found.", http.StatusNotFound)
			default:
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.Success(w, "User profile retrieved.", response{
			ID:       profile.ID,
			Email:    profile.Email,
			Username: profile.Username,
			FullName: profile.FullName,
			Roles:    profile.Roles,
		})
	})
}

func handleRequestPasswordReset(as authService, l logger.Logger) http.Handler {
	type request struct {
		Email string `json:"email"`
	}
	type response struct {
		ResetLink string `json:"reset_link"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.Bind[request](w, r)
		if err != nil {
			return
		}

		link, err := as.RequestPasswordReset(r.Context(), data.Email)
		if err != nil {
			var validationErr *apperrors.ValidationError
			switch {
			case errors.As(err, &validationErr):
				render.ValidationMessages(w, validationErr.Messages)
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "User not found", http.StatusNotFound)
			default:
				l.Error("password reset request failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.Success(w, "Password reset link has been sent to your email.", response{ResetLink: link})
	})
}

func handleResetPassword(as authService, l logger.Logger) http.Handler {
	type request struct {
		Email       string `json:"email"`
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.Bind[request](w, r)
		if err != nil {
			return
		}

		err = as.ResetPassword(r.Context(), auth.ResetPasswordParams{
			Email:       data.Email,
			Token:       data.Token,
			NewPassword: data.NewPassword,
		})
		if err != nil {
			var validationErr *apperrors.ValidationError
			switch {
			case errors.As(err, &validationErr):
				render.ValidationMessages(w, validationErr.Messages)
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "User not found", http.StatusNotFound)
			case errors.Is(err, apperrors.ErrResetTokenInvalid):
				render.ServiceErrorDetails(w, "Password reset failed",
					[]string{"Reset token is invalid or expired."}, http.StatusBadRequest)
			default:
				l.Error("password reset failed", "error", err.Error())
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.Success(w, "Password has been reset successfully.", nil)
	})
}

// clientIP prefers the first forwarded address, falls back to the peer
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
