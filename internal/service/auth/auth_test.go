package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/Nirob-Barman/ShopSphere/internal/apperrors"
	"github.com/Nirob-Barman/ShopSphere/internal/models"
	"github.com/Nirob-Barman/ShopSphere/internal/repository"
	"github.com/Nirob-Barman/ShopSphere/internal/repository/postgres"
	"github.com/Nirob-Barman/ShopSphere/internal/service/auth/tokenmanager"
	"github.com/Nirob-Barman/ShopSphere/internal/testutil"
)

// mailRecorder captures notifications instead of sending them
type mailRecorder struct {
	mu   sync.Mutex
	sent []recordedMail
	fail bool
}

type recordedMail struct {
	To      string
	Subject string
	Body    string
}

func (r *mailRecorder) Send(_ context.Context, to string, subject string, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fail {
		return context.DeadlineExceeded
	}
	r.sent = append(r.sent, recordedMail{To: to, Subject: subject, Body: body})
	return nil
}

func (r *mailRecorder) last(t *testing.T) recordedMail {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.sent, "a notification should have been dispatched")
	return r.sent[len(r.sent)-1]
}

func Test_AuthService(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Begin new db transaction, seed roles and build the service over it.
	// Rollback transaction when the test stops.
	withService := func(dbpool *pgxpool.Pool, t *testing.T, fn func(s *AuthService, store repository.Storage, mail *mailRecorder)) {
		testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
			store := postgres.NewStorage(tx)

			tokens, err := tokenmanager.New(tokenmanager.Config{
				SecretKey:  "test-secret-key",
				AccessTTL:  15 * time.Minute,
				RefreshTTL: 24 * time.Hour,
			})
			require.NoError(t, err, "token manager should be created without errors")

			mail := &mailRecorder{}
			s, err := NewService(Config{ResetBaseURL: "http://localhost:8000"}, tokens, store, mail)
			require.NoError(t, err, "auth service couldn't be started")

			require.NoError(t, s.SeedDefaultRolesAndAdmin(t.Context()))

			fn(s, store, mail)
		})
	}

	register := func(t *testing.T, s *AuthService, email string) models.User {
		t.Helper()
		user, err := s.Register(t.Context(), RegisterParams{
			Email:    email,
			Password: "pwd123",
			FullName: "Test User",
			Role:     "Customer",
		})
		require.NoError(t, err)
		return user
	}

	t.Run("new service defaults", func(t *testing.T) {
		s, err := NewService(Config{}, &tokenmanager.Manager{}, postgres.NewStorage(pg.Pool), nil)
		require.NoError(t, err)

		require.Equal(t, DefaultHasher, s.hasher, "default hasher should be set")
		require.Equal(t, defaultMinPasswordLen, s.minPasswordLen)
		require.Equal(t, defaultResetTokenTTL, s.resetTokenTTL)
		require.NotNil(t, s.sender, "a sender should always be set")
	})

	t.Run("new service requires tokens and storage", func(t *testing.T) {
		_, err := NewService(Config{}, nil, nil, nil)
		require.Error(t, err)
	})

	t.Run("Register", func(t *testing.T) {
		t.Run("new user ok", func(t *testing.T) {
			withService(pg.Pool, t, func(s *AuthService, store repository.Storage, mail *mailRecorder) {
				user := register(t, s, "user@x.com")

				require.NotEqual(t, uuid.Nil, user.ID)
				require.Equal(t, "user@x.com", user.Email)

				roles, err := store.Role().UserRoles(t.Context(), user.ID)
				require.NoError(t, err)
				require.Equal(t, []string{"Customer"}, roles)
			})
		})

		t.Run("sends welcome notification after commit", func(t *testing.T) {
			withService(pg.Pool, t, func(s *AuthService, _ repository.Storage, mail *mailRecorder) {
				register(t, s, "user@x.com")

				m := mail.last(t)
				require.Equal(t, "user@x.com", m.To)
				require.Equal(t, "Welcome to ShopSphere", m.Subject)
				require.Contains(t, m.Body, "Hello Test User,")
			})
		})

		t.Run("registration survives a failed notification", func(t *testing.T) {
			withService(pg.Pool, t, func(s *AuthService, store repository.Storage, mail *mailRecorder) {
				mail.fail = true

				user := register(t, s, "user@x.com")

				_, err := store.User().GetUserByID(t.Context(), user.ID)
				require.NoError(t, err)
			})
		})

		t.Run("fail if user exists", func(t *testing.T) {
			withService(pg.Pool, t, func(s *AuthService, _ repository.Storage, _ *mailRecorder) {
				register(t, s, "user@x.com")

				_, err := s.Register(t.Context(), RegisterParams{
					Email:    "USER@x.com",
					Password: "other-pwd",
					FullName: "Other",
					Role:     "Customer",
				})
				require.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
			})
		})

		t.Run("fail if role unknown and user is not created", func(t *testing.T) {
			withService(pg.Pool, t, func(s *AuthService, store repository.Storage, _ *mailRecorder) {
				_, err := s.Register(t.Context(), RegisterParams{
					Email:    "user@x.com",
					Password: "pwd123",
					FullName: "Test User",
					Role:     "NoSuchRole",
				})

				require.ErrorIs(t, err, apperrors.ErrRegistrationFailed)

				_, err = store.User().GetUserByEmail(t.Context(), "user@x.com")
				require.ErrorIs(t, err, apperrors.ErrUserNotFound, "the transaction should have rolled back")
			})
		})

		t.Run("fail on invalid params", func(t *testing.T) {
			withService(pg.Pool, t, func(s *AuthService, _ repository.Storage, _ *mailRecorder) {
				_, err := s.Register(t.Context(), RegisterParams{Email: "not-an-email"})

				var vErr *apperrors.ValidationError
				require.ErrorAs(t, err, &vErr)
				require.Contains(t, vErr.Messages, "Invalid email format.")
				require.Contains(t, vErr.Messages, "Password is required.")
				require.Contains(t, vErr.Messages, "Full name is required.")
			})
		})
	})

	t.Run("Login", func(t *testing.T) {
		t.Run("existing user ok", func(t *testing.T) {
			withService(pg.Pool, t, func(s *AuthService, _ repository.Storage, _ *mailRecorder) {
				register(t, s, "user@x.com")

				result, err := s.Login(t.Context(), LoginParams{Email: "user@x.com", Password: "pwd123"})

				require.NoError(t, err)
				require.NotEmpty(t, result.Pair.Access.Value)
				require.NotEmpty(t, result.Pair.Refresh.Value)
				require.Equal(t, []string{"Customer"}, result.Roles)
			})
		})

		t.Run("writes the audit row", func(t *testing.T) {
			withService(pg.Pool, t, func(s *AuthService, store repository.Storage, _ *mailRecorder) {
				user := register(t, s, "user@x.com")

				_, err := s.Login(t.Context(), LoginParams{
					Email:     "user@x.com",
					Password:  "pwd123",
					IPAddress: "10.0.0.1",
					UserAgent: "curl/8.0",
				})
				require.NoError(t, err)

				audits, err := store.LoginAudit().ListForUser(t.Context(), user.ID)
				require.NoError(t, err)
				require.Len(t, audits, 1)
				require.Equal(t, "10.0.0.1", audits[0].IPAddress)
				require.Equal(t, "curl/8.0", audits[0].UserAgent)
			})
		})

		t.Run("fail if wrong password", func(t *testing.T) {
			withService(pg.Pool, t, func(s *AuthService, _ repository.Storage, _ *mailRecorder) {
				register(t, s, "user@x.com")

				_, err := s.Login(t.Context(), LoginParams{Email: "user@x.com", Password: "wrong"})
				require.ErrorIs(t, err, apperrors.ErrPasswordIncorrect)
			})
		})

		t.Run("fail if user not exists", func(t *testing.T) {
			withService(pg.Pool, t, func(s *AuthService, _ repository.Storage, _ *mailRecorder) {
				_, err := s.Login(t.Context(), LoginParams{Email: "nobody@x.com", Password: "pwd123"})
				require.ErrorIs(t, err, apperrors.ErrUserNotFound)
			})
		})
	})

	t.Run("RefreshPair", func(t *testing.T) {
		t.Run("rotation ok", func(t *testing.T) {
			withService(pg.Pool, t, func(s *AuthService, _ repository.Storage, _ *mailRecorder) {
				register(t, s, "user@x.com")
				first, err := s.Login(t.Context(), LoginParams{Email: "user@x.com", Password: "pwd123"})
				require.NoError(t, err)

				second, err := s.RefreshPair(t.Context(), first.Pair.Refresh.Value)

				require.NoError(t, err)
				require.NotEmpty(t, second.Pair.Refresh.Value)
				require.NotEqual(t, first.Pair.Refresh.Value, second.Pair.Refresh.Value)
				require.Equal(t, []string{"Customer"}, second.Roles)
			})
		})

		t.Run("old token is spent after rotation", func(t *testing.T) {
			withService(pg.Pool, t, func(s *AuthService, _ repository.Storage, _ *mailRecorder) {
				register(t, s, "user@x.com")
				first, err := s.Login(t.Context(), LoginParams{Email: "user@x.com", Password: "pwd123"})
				require.NoError(t, err)

				_, err = s.RefreshPair(t.Context(), first.Pair.Refresh.Value)
				require.NoError(t, err)

				_, err = s.RefreshPair(t.Context(), first.Pair.Refresh.Value)
				require.ErrorIs(t, err, apperrors.ErrRefreshTokenInvalid)
			})
		})

		t.Run("fail if token revoked", func(t *testing.T) {
			withService(pg.Pool, t, func(s *AuthService, _ repository.Storage, _ *mailRecorder) {
				register(t, s, "user@x.com")
				result, err := s.Login(t.Context(), LoginParams{Email: "user@x.com", Password: "pwd123"})
				require.NoError(t, err)

				require.NoError(t, s.Logout(t.Context(), result.Pair.Refresh.Value))

				_, err = s.RefreshPair(t.Context(), result.Pair.Refresh.Value)
				require.ErrorIs(t, err, apperrors.ErrRefreshTokenInvalid)
			})
		})

		t.Run("fail if token unknown", func(t *testing.T) {
			withService(pg.Pool, t, func(s *AuthService, _ repository.Storage, _ *mailRecorder) {
				_, err := s.RefreshPair(t.Context(), "no-such-token")
				require.ErrorIs(t, err, apperrors.ErrRefreshTokenInvalid)
			})
		})

		t.Run("fail if token empty", func(t *testing.T) {
			withService(pg.Pool, t, func(s *AuthService, _ repository.Storage, _ *mailRecorder) {
				_, err := s.RefreshPair(t.Context(), "")

				var vErr *apperrors.ValidationError
				require.ErrorAs(t, err, &vErr)
				require.Contains(t, vErr.Messages, "Refresh token is required.")
			})
		})
	})

	t.Run("Logout", func(t *testing.T) {
		t.Run("revokes and repeat logout is harmless", func(t *testing.T) {
			withService(pg.Pool, t, func(s *AuthService, _ repository.Storage, _ *mailRecorder) {
				register(t, s, "user@x.com")
				result, err := s.Login(t.Context(), LoginParams{Email: "user@x.com", Password: "pwd123"})
				require.NoError(t, err)

				require.NoError(t, s.Logout(t.Context(), result.Pair.Refresh.Value))
				require.NoError(t, s.Logout(t.Context(), result.Pair.Refresh.Value))
			})
		})

		t.Run("fail if token unknown", func(t *testing.T) {
			withService(pg.Pool, t, func(s *AuthService, _ repository.Storage, _ *mailRecorder) {
				err := s.Logout(t.Context(), "no-such-token")
				require.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
			})
		})
	})

	t.Run("Authenticate", func(t *testing.T) {
		t.Run("valid token resolves the user", func(t *testing.T) {
			withService(pg.Pool, t, func(s *AuthService, _ repository.Storage, _ *mailRecorder) {
				registered := register(t, s, "user@x.com")
				result, err := s.Login(t.Context(), LoginParams{Email: "user@x.com", Password: "pwd123"})
				require.NoError(t, err)

				user, claims, err := s.Authenticate(t.Context(), result.Pair.Access.Value)

				require.NoError(t, err)
				require.Equal(t, registered.ID, user.ID)
				require.Equal(t, "user@x.com", claims.Email)
				require.Equal(t, []string{"Customer"}, claims.Roles)
			})
		})

		t.Run("fail on garbage token", func(t *testing.T) {
			withService(pg.Pool, t, func(s *AuthService, _ repository.Storage, _ *mailRecorder) {
				_, _, err := s.Authenticate(t.Context(), "not.a.jwt")
				require.ErrorIs(t, err, apperrors.ErrAccessTokenInvalid)
			})
		})
	})

	t.Run("Profile re-reads roles from storage", func(t *testing.T) {
		withService(pg.Pool, t, func(s *AuthService, _ repository.Storage, _ *mailRecorder) {
			user := register(t, s, "user@x.com")

			_, err := s.AssignRole(t.Context(), AssignRoleParams{UserID: user.ID.String(), RoleName: "Seller"})
			require.NoError(t, err)

			profile, err := s.Profile(t.Context(), user.ID)

			require.NoError(t, err)
			require.Equal(t, "user@x.com", profile.Email)
			require.Equal(t, []string{"Customer", "Seller"}, profile.Roles)
		})
	})

	t.Run("full session lifecycle", func(t *testing.T) {
		withService(pg.Pool, t, func(s *AuthService, _ repository.Storage, _ *mailRecorder) {
			register(t, s, "user@x.com")

			first, err := s.Login(t.Context(), LoginParams{Email: "user@x.com", Password: "pwd123"})
			require.NoError(t, err)

			second, err := s.RefreshPair(t.Context(), first.Pair.Refresh.Value)
			require.NoError(t, err)

			_, err = s.RefreshPair(t.Context(), first.Pair.Refresh.Value)
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenInvalid, "rotated-out token must not refresh")

			require.NoError(t, s.Logout(t.Context(), second.Pair.Refresh.Value))

			_, err = s.RefreshPair(t.Context(), second.Pair.Refresh.Value)
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenInvalid, "revoked token must not refresh")
		})
	})
}
