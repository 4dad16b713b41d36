package access

import "time"

// Response statuses carried by every API envelope.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// WirePrivilege is a privilege as exchanged with the API. A nil Selected in a
// role response means the privilege is listed because it is granted.
type WirePrivilege struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	Selected *bool  `json:"selected,omitempty"`
}

// WirePermission is a permission as exchanged with the API.
type WirePermission struct {
	PermissionID          int64           `json:"permissionId"`
	PermissionName        string          `json:"permissionName"`
	PermissionCode        string          `json:"permissionCode"`
	PermissionDescription string          `json:"permissionDescription,omitempty"`
	Module                string          `json:"module,omitempty"`
	Privileges            []WirePrivilege `json:"privileges"`
}

// WireModule is one module entry. Backends populate Permission (single),
// Permissions (legacy multi) or Privileges (module-level, no owning
// permission); English key aliases are accepted on read.
type WireModule struct {
	ID           int64            `json:"id,omitempty"`
	Nombre       string           `json:"nombre,omitempty"`
	Name         string           `json:"name,omitempty"`
	Permission   *WirePermission  `json:"permiso,omitempty"`
	Permissions  []WirePermission `json:"permisos,omitempty"`
	PermissionsE []WirePermission `json:"permissions,omitempty"`
	Privileges   []WirePrivilege  `json:"privilegios,omitempty"`
	PrivilegesE  []WirePrivilege  `json:"privileges,omitempty"`
}

// Label returns the module's display name.
func (m WireModule) Label() string {
	if m.Nombre != "" {
		return m.Nombre
	}
	return m.Name
}

func (m WireModule) permissions() []WirePermission {
	var out []WirePermission
	if m.Permission != nil {
		out = append(out, *m.Permission)
	}
	out = append(out, m.Permissions...)
	return append(out, m.PermissionsE...)
}

func (m WireModule) modulePrivileges() []WirePrivilege {
	return append(append([]WirePrivilege(nil), m.Privileges...), m.PrivilegesE...)
}

// CatalogData is the data section of the catalog endpoint: either grouped
// modules or a flat permission list.
type CatalogData struct {
	Modulos     []WireModule     `json:"modulos,omitempty"`
	Modules     []WireModule     `json:"modules,omitempty"`
	Permisos    []WirePermission `json:"permisos,omitempty"`
	Permissions []WirePermission `json:"permissions,omitempty"`
}

// WireRole is a role record. Both the current and legacy field names are
// accepted on read; writers emit the current ones.
type WireRole struct {
	ID                 int64      `json:"id"`
	Nombre             string     `json:"nombre,omitempty"`
	Name               string     `json:"name,omitempty"`
	Descripcion        string     `json:"descripcion,omitempty"`
	Description        string     `json:"description,omitempty"`
	Estado             *bool      `json:"estado,omitempty"`
	IsActive           *bool      `json:"isActive,omitempty"`
	Codigo             string     `json:"codigo,omitempty"`
	CreatedAt          *time.Time `json:"createdAt,omitempty"`
	UpdatedAt          *time.Time `json:"updatedAt,omitempty"`
	FechaCreacion      *time.Time `json:"fecha_creacion,omitempty"`
	FechaActualizacion *time.Time `json:"fecha_actualizacion,omitempty"`
}

// Role converts the wire record into a Role, applying legacy fallbacks.
func (w WireRole) Role() Role {
	r := Role{
		ID:          w.ID,
		Name:        firstNonEmpty(w.Nombre, w.Name),
		Description: firstNonEmpty(w.Descripcion, w.Description),
		Code:        w.Codigo,
	}
	switch {
	case w.Estado != nil:
		r.Active = *w.Estado
	case w.IsActive != nil:
		r.Active = *w.IsActive
	}
	r.CreatedAt = firstTime(w.CreatedAt, w.FechaCreacion)
	r.UpdatedAt = firstTime(w.UpdatedAt, w.FechaActualizacion)
	return r
}

// NewWireRole renders a Role with the current field names.
func NewWireRole(r Role) WireRole {
	active := r.Active
	w := WireRole{
		ID:          r.ID,
		Nombre:      r.Name,
		Descripcion: r.Description,
		Estado:      &active,
		Codigo:      r.Code,
	}
	if !r.CreatedAt.IsZero() {
		created := r.CreatedAt
		w.CreatedAt = &created
	}
	if !r.UpdatedAt.IsZero() {
		updated := r.UpdatedAt
		w.UpdatedAt = &updated
	}
	return w
}

// RolesData is the data section of GET /roles.
type RolesData struct {
	Roles []WireRole `json:"roles"`
}

// RoleData wraps a single role, as returned by create, update and get.
type RoleData struct {
	Rol WireRole `json:"rol"`
}

// RolePermissionsData is the data section of GET /roles/{id}/permissions.
type RolePermissionsData struct {
	Rol     WireRole     `json:"rol"`
	Modulos []WireModule `json:"modulos"`
}

// RolePayload is the body of role create and update requests.
type RolePayload struct {
	Nombre      string  `json:"nombre"`
	Descripcion string  `json:"descripcion"`
	Estado      bool    `json:"estado"`
	Permisos    []int64 `json:"permisos"`
	Privilegios []int64 `json:"privilegios"`
}

// StatusPayload is the body of PATCH /roles/{id}/deactivate.
type StatusPayload struct {
	Estado bool `json:"estado"`
}

// WireUser is a user holding a role.
type WireUser struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
	Email  string `json:"email"`
	Estado bool   `json:"estado"`
}

// User converts the wire record.
func (w WireUser) User() User {
	return User{ID: w.ID, Name: w.Nombre, Email: w.Email, Active: w.Estado}
}

// UsersData is the data section of GET /roles/{id}/users.
type UsersData struct {
	Usuarios []WireUser `json:"usuarios"`
}

// NewWireModules renders permissions grouped by module, emitting only
// selected privileges when grantedOnly is set. Placeholder permissions are
// rendered as module-level privileges.
func NewWireModules(perms []Permission, grantedOnly bool) []WireModule {
	var modules []WireModule
	for _, group := range GroupByModule(perms) {
		mod := WireModule{Nombre: group.Label}
		for _, p := range group.Permissions {
			privs := wirePrivileges(p.Privileges, grantedOnly)
			if grantedOnly && len(privs) == 0 {
				continue
			}
			if p.Placeholder {
				mod.Privileges = append(mod.Privileges, privs...)
				continue
			}
			mod.Permissions = append(mod.Permissions, WirePermission{
				PermissionID:          p.ID,
				PermissionName:        p.Name,
				PermissionCode:        p.Code,
				PermissionDescription: p.Description,
				Module:                p.Module,
				Privileges:            privs,
			})
		}
		if grantedOnly && len(mod.Permissions) == 0 && len(mod.Privileges) == 0 {
			continue
		}
		modules = append(modules, mod)
	}
	return modules
}

func wirePrivileges(privs []Privilege, grantedOnly bool) []WirePrivilege {
	out := make([]WirePrivilege, 0, len(privs))
	for _, priv := range privs {
		if grantedOnly && !priv.Selected {
			continue
		}
		selected := priv.Selected
		out = append(out, WirePrivilege{ID: priv.ID, Name: priv.Name, Code: priv.Code, Selected: &selected})
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstTime(values ...*time.Time) time.Time {
	for _, v := range values {
		if v != nil && !v.IsZero() {
			return *v
		}
	}
	return time.Time{}
}

// LoginPayload is the body of POST /auth/login.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionData is returned by POST /auth/login.
type SessionData struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Usuario   WireUser  `json:"usuario"`
}

// MeData is returned by GET /auth/me: the current user, their role and the
// privileges the role grants.
type MeData struct {
	Usuario WireUser     `json:"usuario"`
	Rol     WireRole     `json:"rol"`
	Modulos []WireModule `json:"modulos"`
}
