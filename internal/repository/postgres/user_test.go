package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/Nirob-Barman/ShopSphere/internal/apperrors"
	"github.com/Nirob-Barman/ShopSphere/internal/testutil"
)

func Test_UserRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("create user ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			user, err := repo.CreateUser(t.Context(), "a@x.com", "A", "hashed")

			require.NoError(t, err)
			require.NotEqual(t, uuid.Nil, user.ID)
			require.Equal(t, "a@x.com", user.Email)
			require.Equal(t, "A", user.FullName)
			require.Equal(t, "hashed", user.HashedPassword)
			require.False(t, user.CreatedAt.IsZero())
		})
	})

	t.Run("duplicate email conflicts case-insensitively", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			_, err := repo.CreateUser(t.Context(), "a@x.com", "A", "hashed")
			require.NoError(t, err)

			_, err = repo.CreateUser(t.Context(), "A@X.COM", "Other", "hashed")
			require.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
		})
	})

	t.Run("get by email normalizes case", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			created, err := repo.CreateUser(t.Context(), "a@x.com", "A", "hashed")
			require.NoError(t, err)

			got, err := repo.GetUserByEmail(t.Context(), "A@X.com")
			require.NoError(t, err)
			require.Equal(t, created.ID, got.ID)
		})
	})

	t.Run("get missing user", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			_, err := repo.GetUserByEmail(t.Context(), "nobody@x.com")
			require.ErrorIs(t, err, apperrors.ErrUserNotFound)

			_, err = repo.GetUserByID(t.Context(), uuid.New())
			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("set password replaces hash", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			user, err := repo.CreateUser(t.Context(), "a@x.com", "A", "old-hash")
			require.NoError(t, err)

			require.NoError(t, repo.SetPassword(t.Context(), user.ID, "new-hash"))

			got, err := repo.GetUserByID(t.Context(), user.ID)
			require.NoError(t, err)
			require.Equal(t, "new-hash", got.HashedPassword)
		})
	})

	t.Run("set password for missing user", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := UserRepo{DB: tx}

			err := repo.SetPassword(t.Context(), uuid.New(), "new-hash")
			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})
}
