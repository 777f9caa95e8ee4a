package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Nirob-Barman/ShopSphere/internal/apperrors"
	"github.com/Nirob-Barman/ShopSphere/internal/models"
)

type RefreshTokenRepo struct {
	DB DBTX
}

const saveToken = `-- name: SaveRefreshToken
INSERT INTO refresh_tokens (token, user_id, created_at, expires_at, used, revoked)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING token, user_id, created_at, expires_at, used, revoked
`

func (r *RefreshTokenRepo) Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, saveToken, token.Token, token.UserID, token.CreatedAt, token.ExpiresAt, token.Used, token.Revoked)
	saved, err := pgx.CollectOneRow(rows, rowToRefreshToken)
	if err != nil {
		return saved, fmt.Errorf("db error: %w", err)
	}
	return saved, nil
}

const getToken = `-- name: GetRefreshToken
SELECT token, user_id, created_at, expires_at, used, revoked
FROM refresh_tokens
WHERE token = $1
`

// Get returns the row even if the token is used, revoked or expired
func (r *RefreshTokenRepo) Get(ctx context.Context, tokenString string) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, getToken, tokenString)
	token, err := pgx.CollectOneRow(rows, rowToRefreshToken)

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

const redeemToken = `-- name: RedeemRefreshToken
UPDATE refresh_tokens
SET used = TRUE
WHERE token = $1 AND NOT used AND NOT revoked AND expires_at > $2
RETURNING token, user_id, created_at, expires_at, used, revoked
`

// Redeem marks the token used with a single compare-and-set update.
// Concurrent calls with the same token race on the row update, the row
// matches the WHERE clause at most once, so only one caller gets it back.
// Missing, used, revoked and expired tokens all collapse into
// apperrors.ErrRefreshTokenInvalid.
func (r *RefreshTokenRepo) Redeem(ctx context.Context, tokenString string, now time.Time) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, redeemToken, tokenString, now)
	token, err := pgx.CollectOneRow(rows, rowToRefreshToken)

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenInvalid)
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

const revokeToken = `-- name: RevokeRefreshToken
UPDATE refresh_tokens
SET revoked = TRUE
WHERE token = $1
`

// Revoke is idempotent: revoking twice is still a success
func (r *RefreshTokenRepo) Revoke(ctx context.Context, tokenString string) error {
	tag, err := r.DB.Exec(ctx, revokeToken, tokenString)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	}
	return nil
}

func rowToRefreshToken(row pgx.CollectableRow) (models.RefreshToken, error) {
	var t models.RefreshToken
	err := row.Scan(&t.Token, &t.UserID, &t.CreatedAt, &t.ExpiresAt, &t.Used, &t.Revoked)
	return t, err
}
