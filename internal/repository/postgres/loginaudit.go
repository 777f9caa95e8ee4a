package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Nirob-Barman/ShopSphere/internal/models"
)

type LoginAuditRepo struct {
	DB DBTX
}

const saveAudit = `-- name: SaveLoginAudit
INSERT INTO login_audits (user_id, email, login_time, ip_address, user_agent)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, user_id, email, login_time, ip_address, user_agent
`

func (r *LoginAuditRepo) Save(ctx context.Context, audit models.LoginAudit) (models.LoginAudit, error) {
	rows, _ := r.DB.Query(ctx, saveAudit, audit.UserID, audit.Email, audit.LoginTime, audit.IPAddress, audit.UserAgent)
	saved, err := pgx.CollectOneRow(rows, rowToLoginAudit)
	if err != nil {
		return saved, fmt.Errorf("db error: %w", err)
	}
	return saved, nil
}

const listAuditsForUser = `-- name: ListLoginAuditsForUser
SELECT id, user_id, email, login_time, ip_address, user_agent
FROM login_audits
WHERE user_id = $1
ORDER BY login_time DESC
`

func (r *LoginAuditRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.LoginAudit, error) {
	rows, _ := r.DB.Query(ctx, listAuditsForUser, userID)
	audits, err := pgx.CollectRows(rows, rowToLoginAudit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return audits, nil
}

func rowToLoginAudit(row pgx.CollectableRow) (models.LoginAudit, error) {
	var a models.LoginAudit
	err := row.Scan(&a.ID, &a.UserID, &a.Email, &a.LoginTime, &a.IPAddress, &a.UserAgent)
	return a, err
}
