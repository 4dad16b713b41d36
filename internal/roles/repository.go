package roles

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LauraGA777/gmsf/internal/access"
	"github.com/LauraGA777/gmsf/internal/platform/db"
)

const (
	constraintRoleName = "roles_name_key"
	constraintUserRole = "users_role_id_fkey"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const roleColumns = `id, COALESCE(code, ''), name, description, active, created_at, updated_at`

func scanRole(row pgx.Row) (access.Role, error) {
	var role access.Role
	err := row.Scan(&role.ID, &role.Code, &role.Name, &role.Description, &role.Active, &role.CreatedAt, &role.UpdatedAt)
	return role, err
}

// ListRoles returns all roles.
func (r *Repository) ListRoles(ctx context.Context) ([]access.Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("roles: list: %w", err)
	}
	defer rows.Close()
	var roles []access.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("roles: scan: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("roles: list rows: %w", err)
	}
	return roles, nil
}

// GetRole fetches a role by ID.
func (r *Repository) GetRole(ctx context.Context, id int64) (access.Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return access.Role{}, ErrNotFound
		}
		return access.Role{}, fmt.Errorf("roles: get %d: %w", id, err)
	}
	return role, nil
}

// CreateRole inserts a role with its grants and assigns its display code.
func (r *Repository) CreateRole(ctx context.Context, in RoleInput) (access.Role, error) {
	var role access.Role
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var id int64
		if err := tx.QueryRow(ctx,
			`INSERT INTO roles (name, description, active) VALUES ($1, $2, $3) RETURNING id`,
			in.Name, in.Description, in.Active,
		).Scan(&id); err != nil {
			return err
		}
		var err error
		role, err = scanRole(tx.QueryRow(ctx,
			`UPDATE roles SET code = 'ROL-' || lpad(id::text, 4, '0') WHERE id = $1 RETURNING `+roleColumns, id))
		if err != nil {
			return err
		}
		return replaceGrants(ctx, tx, id, in.PrivilegeIDs)
	})
	if err != nil {
		return access.Role{}, classify("create", err)
	}
	role.PrivilegeIDs = in.PrivilegeIDs
	return role, nil
}

// UpdateRole replaces a role's fields and grants.
func (r *Repository) UpdateRole(ctx context.Context, id int64, in RoleInput) (access.Role, error) {
	var role access.Role
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		role, err = scanRole(tx.QueryRow(ctx,
			`UPDATE roles SET name = $2, description = $3, active = $4, updated_at = NOW() WHERE id = $1 RETURNING `+roleColumns,
			id, in.Name, in.Description, in.Active))
		if err != nil {
			return err
		}
		return replaceGrants(ctx, tx, id, in.PrivilegeIDs)
	})
	if err != nil {
		return access.Role{}, classify("update", err)
	}
	role.PrivilegeIDs = in.PrivilegeIDs
	return role, nil
}

// SetActive toggles a role's state.
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) (access.Role, error) {
	role, err := scanRole(r.pool.QueryRow(ctx,
		`UPDATE roles SET active = $2, updated_at = NOW() WHERE id = $1 RETURNING `+roleColumns, id, active))
	if err != nil {
		return access.Role{}, classify("set active", err)
	}
	return role, nil
}

// DeleteRole removes a role by ID. Grants go with it; assigned users block it.
func (r *Repository) DeleteRole(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return classify("delete", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RoleUsers lists the users holding a role.
func (r *Repository) RoleUsers(ctx context.Context, id int64) ([]access.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, email, active FROM users WHERE role_id = $1 ORDER BY name`, id)
	if err != nil {
		return nil, fmt.Errorf("roles: users of %d: %w", id, err)
	}
	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (access.User, error) {
		var u access.User
		err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Active)
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("roles: users of %d: %w", id, err)
	}
	return users, nil
}

func replaceGrants(ctx context.Context, tx pgx.Tx, roleID int64, privilegeIDs []int64) error {
	if _, err := tx.Exec(ctx, `DELETE FROM role_privileges WHERE role_id = $1`, roleID); err != nil {
		return err
	}
	if len(privilegeIDs) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx,
		`INSERT INTO role_privileges (role_id, privilege_id) SELECT $1, unnest($2::bigint[])`,
		roleID, privilegeIDs)
	return err
}

func classify(op string, err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return ErrNotFound
	case db.IsUniqueViolation(err, constraintRoleName):
		return ErrDuplicate
	case db.IsForeignKeyViolation(err, constraintUserRole):
		return ErrInUse
	default:
		return fmt.Errorf("roles: %s: %w", op, err)
	}
}

var _ RepositoryPort = (*Repository)(nil)
