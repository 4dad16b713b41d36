package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LauraGA777/gmsf/internal/access"
)

// ErrNotFound indicates that the requested record does not exist.
var ErrNotFound = errors.New("rbac: not found")

// Repository reads the catalog and role assignments.
type Repository interface {
	Catalog(ctx context.Context) ([]access.Permission, error)
	RolePrivilegeIDs(ctx context.Context, roleID int64) ([]int64, error)
	UserGrant(ctx context.Context, userID int64) (Grant, error)
	RoleUserIDs(ctx context.Context, roleID int64) ([]int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const catalogQuery = `
SELECT p.id, p.name, p.code, p.description, p.module, v.id, v.name, v.code,
       p.position, COALESCE(v.position, 0)
FROM permissions p
LEFT JOIN privileges v ON v.permission_id = p.id
UNION ALL
SELECT NULL, NULL, NULL, NULL, v.module, v.id, v.name, v.code, 2147483647, v.position
FROM privileges v
WHERE v.permission_id IS NULL
ORDER BY 5, 9, 1, 10, 6`

// Catalog returns every permission with its privileges. Privileges without
// a permission are returned under a placeholder permission of their module.
func (r *PGRepository) Catalog(ctx context.Context) ([]access.Permission, error) {
	rows, err := r.pool.Query(ctx, catalogQuery)
	if err != nil {
		return nil, fmt.Errorf("rbac: catalog: %w", err)
	}
	defer rows.Close()
	var out []catalogRow
	for rows.Next() {
		var (
			row              catalogRow
			permPos, privPos int32
		)
		if err := rows.Scan(
			&row.PermissionID, &row.PermissionName, &row.PermissionCode, &row.PermissionDescription,
			&row.Module, &row.PrivilegeID, &row.PrivilegeName, &row.PrivilegeCode,
			&permPos, &privPos,
		); err != nil {
			return nil, fmt.Errorf("rbac: scan catalog: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rbac: catalog rows: %w", err)
	}
	return access.NormalizeModules(modulesFromRows(out)), nil
}

// modulesFromRows groups rows by module label in first-seen order.
func modulesFromRows(rows []catalogRow) []access.WireModule {
	var modules []access.WireModule
	moduleIndex := make(map[string]int)
	permIndex := make(map[int64][2]int)
	for _, row := range rows {
		mi, ok := moduleIndex[row.Module]
		if !ok {
			mi = len(modules)
			moduleIndex[row.Module] = mi
			modules = append(modules, access.WireModule{Nombre: row.Module})
		}
		mod := &modules[mi]

		var priv *access.WirePrivilege
		if row.PrivilegeID != nil {
			priv = &access.WirePrivilege{ID: *row.PrivilegeID, Name: deref(row.PrivilegeName), Code: deref(row.PrivilegeCode)}
		}
		if row.PermissionID == nil {
			if priv != nil {
				mod.Privileges = append(mod.Privileges, *priv)
			}
			continue
		}
		loc, ok := permIndex[*row.PermissionID]
		if !ok {
			loc = [2]int{mi, len(mod.Permissions)}
			permIndex[*row.PermissionID] = loc
			mod.Permissions = append(mod.Permissions, access.WirePermission{
				PermissionID:          *row.PermissionID,
				PermissionName:        deref(row.PermissionName),
				PermissionCode:        deref(row.PermissionCode),
				PermissionDescription: deref(row.PermissionDescription),
				Module:                row.Module,
				Privileges:            []access.WirePrivilege{},
			})
		}
		if priv != nil {
			wp := &modules[loc[0]].Permissions[loc[1]]
			wp.Privileges = append(wp.Privileges, *priv)
		}
	}
	return modules
}

// RolePrivilegeIDs returns the privileges granted to a role.
func (r *PGRepository) RolePrivilegeIDs(ctx context.Context, roleID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT privilege_id FROM role_privileges WHERE role_id = $1 ORDER BY privilege_id`, roleID)
	if err != nil {
		return nil, fmt.Errorf("rbac: role privileges: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("rbac: role privileges: %w", err)
	}
	return ids, nil
}

// UserGrant returns the role assignment of a user.
func (r *PGRepository) UserGrant(ctx context.Context, userID int64) (Grant, error) {
	const query = `
SELECT u.id, u.active, COALESCE(r.id, 0), COALESCE(r.active, FALSE)
FROM users u
LEFT JOIN roles r ON r.id = u.role_id
WHERE u.id = $1`
	var g Grant
	err := r.pool.QueryRow(ctx, query, userID).Scan(&g.UserID, &g.UserActive, &g.RoleID, &g.RoleActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Grant{}, ErrNotFound
		}
		return Grant{}, fmt.Errorf("rbac: user grant: %w", err)
	}
	return g, nil
}

// RoleUserIDs returns the users holding a role.
func (r *PGRepository) RoleUserIDs(ctx context.Context, roleID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM users WHERE role_id = $1 ORDER BY id`, roleID)
	if err != nil {
		return nil, fmt.Errorf("rbac: role users: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("rbac: role users: %w", err)
	}
	return ids, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ Repository = (*PGRepository)(nil)
