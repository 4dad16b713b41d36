package rolesapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/LauraGA777/gmsf/internal/access"
)

// Login exchanges credentials for a bearer token and stores it on the client.
func (c *Client) Login(ctx context.Context, email, password string) (access.SessionData, error) {
	var data access.SessionData
	if err := c.do(ctx, http.MethodPost, "/auth/login", access.LoginPayload{Email: email, Password: password}, &data); err != nil {
		return access.SessionData{}, err
	}
	c.SetToken(data.Token)
	return data, nil
}

// Logout revokes the current token and clears it.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.SetToken("")
	return err
}

// Me returns the current user with the privileges of their role.
func (c *Client) Me(ctx context.Context) (access.MeData, error) {
	var data access.MeData
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, &data)
	return data, err
}

// ListRoles returns every role.
func (c *Client) ListRoles(ctx context.Context) ([]access.Role, error) {
	var data access.RolesData
	if err := c.do(ctx, http.MethodGet, "/roles", nil, &data); err != nil {
		return nil, err
	}
	roles := make([]access.Role, 0, len(data.Roles))
	for _, wr := range data.Roles {
		roles = append(roles, wr.Role())
	}
	return roles, nil
}

// RolePermissions returns a role and the modules describing its grants.
func (c *Client) RolePermissions(ctx context.Context, roleID int64) (access.Role, []access.WireModule, error) {
	var data access.RolePermissionsData
	if err := c.do(ctx, http.MethodGet, rolePath(roleID, "/permissions"), nil, &data); err != nil {
		return access.Role{}, nil, err
	}
	role := data.Rol.Role()
	role.PrivilegeIDs = access.GrantedPrivilegeIDs(data.Modulos)
	return role, data.Modulos, nil
}

// Catalog returns the raw permission catalog.
func (c *Client) Catalog(ctx context.Context) (access.CatalogData, error) {
	var data access.CatalogData
	err := c.do(ctx, http.MethodGet, "/roles/permissions-privileges", nil, &data)
	return data, err
}

// CreateRole issues POST /roles.
func (c *Client) CreateRole(ctx context.Context, payload access.RolePayload) (access.Role, error) {
	var data access.RoleData
	if err := c.do(ctx, http.MethodPost, "/roles", payload, &data); err != nil {
		return access.Role{}, err
	}
	return data.Rol.Role(), nil
}

// UpdateRole issues PUT /roles/{id}.
func (c *Client) UpdateRole(ctx context.Context, roleID int64, payload access.RolePayload) (access.Role, error) {
	var data access.RoleData
	if err := c.do(ctx, http.MethodPut, rolePath(roleID, ""), payload, &data); err != nil {
		return access.Role{}, err
	}
	return data.Rol.Role(), nil
}

// DeleteRole issues DELETE /roles/{id}.
func (c *Client) DeleteRole(ctx context.Context, roleID int64) error {
	return c.do(ctx, http.MethodDelete, rolePath(roleID, ""), nil, nil)
}

// SetRoleActive issues PATCH /roles/{id}/deactivate with the wanted state.
func (c *Client) SetRoleActive(ctx context.Context, roleID int64, active bool) error {
	return c.do(ctx, http.MethodPatch, rolePath(roleID, "/deactivate"), access.StatusPayload{Estado: active}, nil)
}

// RoleUsers lists the users holding a role.
func (c *Client) RoleUsers(ctx context.Context, roleID int64) ([]access.User, error) {
	var data access.UsersData
	if err := c.do(ctx, http.MethodGet, rolePath(roleID, "/users"), nil, &data); err != nil {
		return nil, err
	}
	users := make([]access.User, 0, len(data.Usuarios))
	for _, wu := range data.Usuarios {
		users = append(users, wu.User())
	}
	return users, nil
}

func rolePath(id int64, suffix string) string {
	return "/roles/" + strconv.FormatInt(id, 10) + suffix
}
