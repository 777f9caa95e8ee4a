package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Nirob-Barman/ShopSphere/internal/apperrors"
	"github.com/Nirob-Barman/ShopSphere/internal/models"
)

type PasswordResetRepo struct {
	DB DBTX
}

const saveResetToken = `-- name: SavePasswordResetToken
INSERT INTO password_reset_tokens (token, user_id, created_at, expires_at)
VALUES ($1, $2, $3, $4)
`

func (r *PasswordResetRepo) Save(ctx context.Context, token models.PasswordResetToken) error {
	_, err := r.DB.Exec(ctx, saveResetToken, token.Token, token.UserID, token.CreatedAt, token.ExpiresAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const consumeResetToken = `-- name: ConsumePasswordResetToken
DELETE FROM password_reset_tokens
WHERE token = $1 AND user_id = $2 AND expires_at > $3
RETURNING token, user_id, created_at, expires_at
`

// Consume deletes the row and returns it in one statement, so the token
// verifies exactly once even under concurrent requests
func (r *PasswordResetRepo) Consume(ctx context.Context, tokenString string, userID uuid.UUID, now time.Time) (models.PasswordResetToken, error) {
	rows, _ := r.DB.Query(ctx, consumeResetToken, tokenString, userID, now)
	token, err := pgx.CollectOneRow(rows, func(row pgx.CollectableRow) (models.PasswordResetToken, error) {
		var t models.PasswordResetToken
		err := row.Scan(&t.Token, &t.UserID, &t.CreatedAt, &t.ExpiresAt)
		return t, err
	})

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, fmt.Errorf("repo error: %w", apperrors.ErrResetTokenInvalid)
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}
