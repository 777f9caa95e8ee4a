package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Nirob-Barman/ShopSphere/internal/apperrors"
	"github.com/Nirob-Barman/ShopSphere/internal/models"
)

type RoleRepo struct {
	DB DBTX
}

const createRole = `-- name: CreateRole
INSERT INTO roles (id, name)
VALUES ($1, $2)
RETURNING id, created_at, name
`

func (r *RoleRepo) CreateRole(ctx context.Context, name string) (models.Role, error) {
	rows, _ := r.DB.Query(ctx, createRole, uuid.New(), name)
	role, err := pgx.CollectOneRow(rows, rowToRole)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return role, apperrors.ErrRoleAlreadyExists
		}

		return role, fmt.Errorf("db error: %w", err)
	}

	return role, nil
}

const getRoleByName = `-- name: GetRoleByName
SELECT id, created_at, name FROM roles
WHERE lower(name) = lower($1)
`

func (r *RoleRepo) GetRoleByName(ctx context.Context, name string) (models.Role, error) {
	rows, _ := r.DB.Query(ctx, getRoleByName, name)
	role, err := pgx.CollectOneRow(rows, rowToRole)

	switch {
	case err == nil:
		return role, nil
	case errors.Is(err, pgx.ErrNoRows):
		return role, apperrors.ErrRoleNotFound
	default:
		return role, fmt.Errorf("db error: %w", err)
	}
}

const deleteRole = `-- name: DeleteRole
DELETE FROM roles
WHERE id = $1
`

func (r *RoleRepo) DeleteRole(ctx context.Context, roleID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, deleteRole, roleID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrRoleNotFound
	}
	return nil
}

const assignRole = `-- name: AssignRole
INSERT INTO user_roles (user_id, role_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`

func (r *RoleRepo) AssignToUser(ctx context.Context, userID uuid.UUID, roleID uuid.UUID) error {
	_, err := r.DB.Exec(ctx, assignRole, userID, roleID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return apperrors.ErrUserNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

const removeRole = `-- name: RemoveRole
DELETE FROM user_roles
WHERE user_id = $1 AND role_id = $2
`

// RemoveFromUser removes the membership row.
// Not holding the role is an error, not a silent no-op
func (r *RoleRepo) RemoveFromUser(ctx context.Context, userID uuid.UUID, roleID uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, removeRole, userID, roleID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotInRole
	}
	return nil
}

const userRoles = `-- name: UserRoles
SELECT r.name
FROM roles r
JOIN user_roles ur ON ur.role_id = r.id
WHERE ur.user_id = $1
ORDER BY r.name
`

func (r *RoleRepo) UserRoles(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, _ := r.DB.Query(ctx, userRoles, userID)
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return names, nil
}

const countUsersInRole = `-- name: CountUsersInRole
SELECT count(*) FROM user_roles
WHERE role_id = $1
`

func (r *RoleRepo) CountUsersInRole(ctx context.Context, roleID uuid.UUID) (int, error) {
	rows, _ := r.DB.Query(ctx, countUsersInRole, roleID)
	count, err := pgx.CollectOneRow(rows, pgx.RowTo[int])
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

func rowToRole(row pgx.CollectableRow) (models.Role, error) {
	var r models.Role
	err := row.Scan(&r.ID, &r.CreatedAt, &r.Name)
	return r, err
}
