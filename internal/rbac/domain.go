package rbac

// Grant is the role assignment of a user.
type Grant struct {
	UserID     int64
	UserActive bool
	RoleID     int64
	RoleActive bool
}

// Effective reports whether the grant confers the role's privileges.
// Inactive users, inactive roles and users without a role get none.
func (g Grant) Effective() bool {
	return g.UserActive && g.RoleActive && g.RoleID != 0
}

// catalogRow is one permission/privilege pair of the catalog query.
type catalogRow struct {
	PermissionID          *int64
	PermissionName        *string
	PermissionCode        *string
	PermissionDescription *string
	Module                string
	PrivilegeID           *int64
	PrivilegeName         *string
	PrivilegeCode         *string
}
