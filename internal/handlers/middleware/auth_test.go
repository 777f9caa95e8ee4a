package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Nirob-Barman/ShopSphere/internal/apperrors"
	"github.com/Nirob-Barman/ShopSphere/internal/handlers/userctx"
	"github.com/Nirob-Barman/ShopSphere/internal/models"
	"github.com/Nirob-Barman/ShopSphere/internal/service/auth/tokenmanager"
)

// Allow to use a function as auth service
type authFunc func(ctx context.Context, access string) (models.User, tokenmanager.AccessTokenClaims, error)

func (f authFunc) Authenticate(ctx context.Context, access string) (models.User, tokenmanager.AccessTokenClaims, error) {
	return f(ctx, access)
}

func get(t *testing.T, url string, authHeader string) (*http.Response, string) {
	t.Helper()

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, url, nil)
	require.NoError(t, err)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err, "should make request to test server")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "should read response body")
	_ = resp.Body.Close()

	return resp, string(body)
}

func TestAuthMiddleware(t *testing.T) {
	// Simple handler that echoes the context user's email
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Must always be true cause middleware has to set user or answer with error itself
		user, ok := userctx.FromContext(r.Context())
		require.True(t, ok)

		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(user.Email))
		require.NoError(t, err, "should write email to response")
	})

	okService := authFunc(func(ctx context.Context, access string) (models.User, tokenmanager.AccessTokenClaims, error) {
		claims := tokenmanager.AccessTokenClaims{Roles: []string{"Customer"}}
		return models.User{Email: "user@x.com"}, claims, nil
	})

	t.Run("auth ok", func(t *testing.T) {
		srv := httptest.NewServer(Auth(okService)(handler))
		defer srv.Close()

		resp, body := get(t, srv.URL+"/test", "Bearer some-access-token")

		require.Equalf(t, http.StatusOK, resp.StatusCode, "should return status OK. Resp: %s", body)
		require.Equal(t, "user@x.com", body, "should return email in response")
	})

	t.Run("auth fail", func(t *testing.T) {
		failing := authFunc(func(ctx context.Context, access string) (models.User, tokenmanager.AccessTokenClaims, error) {
			return models.User{}, tokenmanager.AccessTokenClaims{}, errors.New("nope")
		})

		srv := httptest.NewServer(Auth(failing)(handler))
		defer srv.Close()

		resp, body := get(t, srv.URL+"/test", "Bearer some-access-token")

		require.Equalf(t, http.StatusUnauthorized, resp.StatusCode, "should return status Unauthorized. Resp: %s", body)
		require.JSONEq(t,
			`{
				"error": "service_error",
				"message": "Unauthorized"
			}`,
			body,
		)
	})

	t.Run("deleted token subject answers not found", func(t *testing.T) {
		orphaned := authFunc(func(ctx context.Context, access string) (models.User, tokenmanager.AccessTokenClaims, error) {
			return models.User{}, tokenmanager.AccessTokenClaims{}, apperrors.ErrUserNotFound
		})

		srv := httptest.NewServer(Auth(orphaned)(handler))
		defer srv.Close()

		resp, body := get(t, srv.URL+"/test", "Bearer some-access-token")

		require.Equalf(t, http.StatusNotFound, resp.StatusCode, "should return status NotFound. Resp: %s", body)
		require.JSONEq(t,
			`{
				"error": "service_error",
				"message": "User not found."
			}`,
			body,
		)
	})

	t.Run("header variants", func(t *testing.T) {
		tests := []struct {
			name         string
			header       string
			expectedCode int
		}{
			{name: "no header", header: "", expectedCode: http.StatusUnauthorized},
			{name: "wrong scheme", header: "Basic dXNlcjpwd2Q=", expectedCode: http.StatusUnauthorized},
			{name: "scheme without token", header: "Bearer", expectedCode: http.StatusUnauthorized},
			{name: "lowercase scheme ok", header: "bearer some-access-token", expectedCode: http.StatusOK},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				srv := httptest.NewServer(Auth(okService)(handler))
				defer srv.Close()

				resp, _ := get(t, srv.URL+"/test", tt.header)
				require.Equal(t, tt.expectedCode, resp.StatusCode)
			})
		}
	})
}

func TestRequireRole(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("role held", func(t *testing.T) {
		h := RequireRole("Admin")(handler)

		r := httptest.NewRequest(http.MethodGet, "/test", nil)
		r = r.WithContext(userctx.New(r.Context(), models.User{}, []string{"Admin", "Customer"}))
		w := httptest.NewRecorder()

		h.ServeHTTP(w, r)

		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("role missing", func(t *testing.T) {
		h := RequireRole("Admin")(handler)

		r := httptest.NewRequest(http.MethodGet, "/test", nil)
		r = r.WithContext(userctx.New(r.Context(), models.User{}, []string{"Customer"}))
		w := httptest.NewRecorder()

		h.ServeHTTP(w, r)

		require.Equal(t, http.StatusForbidden, w.Code)
		require.JSONEq(t,
			`{
				"error": "service_error",
				"message": "Forbidden"
			}`,
			w.Body.String(),
		)
	})

	t.Run("no user in context", func(t *testing.T) {
		h := RequireRole("Admin")(handler)

		r := httptest.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()

		h.ServeHTTP(w, r)

		require.Equal(t, http.StatusForbidden, w.Code)
	})
}
