package access

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeCatalog(t *testing.T, raw string) CatalogData {
	t.Helper()
	var data CatalogData
	require.NoError(t, json.Unmarshal([]byte(raw), &data))
	return data
}

func TestNormalizeCatalogGrouped(t *testing.T) {
	data := decodeCatalog(t, `{
		"modulos": [
			{"nombre": "Clientes", "permisos": [
				{"permissionId": 5, "permissionName": "Gestión de Clientes", "permissionCode": "CLIENTS",
				 "privileges": [{"id": 10, "name": "Ver", "code": "CLIENT_READ", "selected": true}, {"id": 11, "name": "Crear", "code": "CLIENT_CREATE"}]}
			]},
			{"name": "Contratos", "permiso":
				{"permissionId": 9, "permissionName": "Contratos", "permissionCode": "CONTRACTS",
				 "privileges": [{"id": 21, "name": "Ver", "code": "CONTRACT_READ"}]}
			}
		]
	}`)

	perms := NormalizeCatalog(data)
	require.Len(t, perms, 2)
	assert.Equal(t, int64(5), perms[0].ID)
	assert.Equal(t, "Clientes", perms[0].Module)
	assert.Equal(t, "Contratos", perms[1].Module)
	for _, p := range perms {
		for _, priv := range p.Privileges {
			assert.False(t, priv.Selected)
		}
	}
}

func TestNormalizeCatalogGroupedEnglishKeys(t *testing.T) {
	data := decodeCatalog(t, `{
		"modules": [
			{"name": "Users", "permissions": [
				{"permissionId": 1, "permissionName": "Usuarios", "permissionCode": "USERS",
				 "privileges": [{"id": 2, "name": "Ver", "code": "USER_READ"}]}
			]}
		]
	}`)

	perms := NormalizeCatalog(data)
	require.Len(t, perms, 1)
	assert.Equal(t, "Users", perms[0].Module)
	assert.Equal(t, []Privilege{{ID: 2, Name: "Ver", Code: "USER_READ"}}, perms[0].Privileges)
}

func TestNormalizeCatalogFlatInfersModules(t *testing.T) {
	data := decodeCatalog(t, `{
		"permisos": [
			{"permissionId": 5, "permissionName": "Gestión de Clientes", "permissionCode": "client_read",
			 "privileges": [{"id": 10, "name": "Ver", "code": "CLIENT_READ"}]},
			{"permissionId": 7, "permissionName": "Reportes", "permissionCode": "reports",
			 "privileges": [{"id": 15, "name": "Ver", "code": "REPORT_READ"}]},
			{"permissionId": 8, "permissionName": "Caja", "permissionCode": "cash", "module": "Finanzas",
			 "privileges": []}
		]
	}`)

	perms := NormalizeCatalog(data)
	require.Len(t, perms, 3)
	assert.Equal(t, "Client Management", perms[0].Module)
	assert.Equal(t, DefaultModule, perms[1].Module)
	assert.Equal(t, "Finanzas", perms[2].Module)
}

func TestNormalizeModulesAllShapes(t *testing.T) {
	var modules []WireModule
	require.NoError(t, json.Unmarshal([]byte(`[
		{"nombre": "Clientes", "permiso": {"permissionId": 5, "permissionName": "Clientes", "permissionCode": "CLIENTS",
			"privileges": [{"id": 10, "name": "Ver", "code": "CLIENT_READ"}]}},
		{"nombre": "Contratos", "permisos": [{"permissionId": 9, "permissionName": "Contratos", "permissionCode": "CONTRACTS",
			"privileges": [{"id": 21, "name": "Ver", "code": "CONTRACT_READ"}]}]},
		{"nombre": "Dashboard", "privilegios": [{"id": 40, "name": "Ver", "code": "DASHBOARD_VIEW"}]},
		{"nombre": "Clientes", "permisos": [{"permissionId": 5, "permissionName": "Clientes", "permissionCode": "CLIENTS",
			"privileges": [{"id": 10, "name": "Ver", "code": "CLIENT_READ"}, {"id": 11, "name": "Crear", "code": "CLIENT_CREATE"}]}]}
	]`), &modules))

	perms := NormalizeModules(modules)
	require.Len(t, perms, 3)

	assert.Equal(t, int64(5), perms[0].ID)
	assert.Equal(t, []int64{10, 11}, privilegeIDs(perms[0]))
	assert.Equal(t, int64(9), perms[1].ID)

	placeholder := perms[2]
	assert.True(t, placeholder.Placeholder)
	assert.Less(t, placeholder.ID, int64(0))
	assert.Equal(t, "Dashboard", placeholder.Module)
	assert.Equal(t, []int64{40}, privilegeIDs(placeholder))
}

func TestNormalizeModulesZeroPermissionIDIsPlaceholder(t *testing.T) {
	modules := []WireModule{
		{Nombre: "Horarios", Permissions: []WirePermission{{PermissionID: 0, Privileges: []WirePrivilege{{ID: 50}}}}},
		{Nombre: "Horarios", Privileges: []WirePrivilege{{ID: 51}}},
		{Nombre: "Servicios", Privileges: []WirePrivilege{{ID: 52}}},
	}

	perms := NormalizeModules(modules)
	require.Len(t, perms, 2)
	assert.Equal(t, []int64{50, 51}, privilegeIDs(perms[0]))
	assert.NotEqual(t, perms[0].ID, perms[1].ID)
	assert.True(t, perms[1].Placeholder)
}

func TestNormalizeModulesPrivilegeBelongsToFirstOwner(t *testing.T) {
	modules := []WireModule{{Permissions: []WirePermission{
		{PermissionID: 1, PermissionName: "Usuarios", Privileges: []WirePrivilege{{ID: 7}}},
		{PermissionID: 2, PermissionName: "Roles", Privileges: []WirePrivilege{{ID: 7}, {ID: 8}}},
	}}}

	perms := NormalizeModules(modules)
	require.Len(t, perms, 2)
	assert.Equal(t, []int64{7}, privilegeIDs(perms[0]))
	assert.Equal(t, []int64{8}, privilegeIDs(perms[1]))
}

func TestGrantedPrivilegeIDs(t *testing.T) {
	no := false
	yes := true
	modules := []WireModule{
		{Permission: &WirePermission{PermissionID: 5, Privileges: []WirePrivilege{{ID: 10}, {ID: 11, Selected: &no}}}},
		{Permissions: []WirePermission{{PermissionID: 9, Privileges: []WirePrivilege{{ID: 21, Selected: &yes}}}}},
		{Privileges: []WirePrivilege{{ID: 40}, {ID: 10}}},
	}

	assert.Equal(t, []int64{10, 21, 40}, GrantedPrivilegeIDs(modules))
}

func TestWireModulesRoundTrip(t *testing.T) {
	catalog := append(fixtureCatalog(), Permission{
		ID: -1, Name: "Dashboard", Module: "Dashboard", Placeholder: true,
		Privileges: []Privilege{{ID: 40, Name: "Ver", Code: "DASHBOARD_VIEW"}},
	})
	sel := NewSelection(catalog, []int64{11, 40})

	granted := NewWireModules(sel.Permissions(), true)
	require.Len(t, granted, 2)
	assert.Equal(t, []int64{11, 40}, GrantedPrivilegeIDs(granted))

	full := NewWireModules(sel.Permissions(), false)
	assert.Len(t, full, 4)
}

func TestWireRoleLegacyFallbacks(t *testing.T) {
	var wr WireRole
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 3, "name": "Coach", "description": "Trainers", "isActive": true, "codigo": "ROL-0003",
		"fecha_creacion": "2024-01-02T03:04:05Z", "fecha_actualizacion": "2024-02-03T04:05:06Z"
	}`), &wr))

	role := wr.Role()
	assert.Equal(t, "Coach", role.Name)
	assert.Equal(t, "Trainers", role.Description)
	assert.True(t, role.Active)
	assert.Equal(t, "ROL-0003", role.Code)
	assert.Equal(t, 2024, role.CreatedAt.Year())
	assert.Equal(t, 2, int(role.UpdatedAt.Month()))

	back := NewWireRole(role).Role()
	assert.Equal(t, role.Name, back.Name)
	assert.Equal(t, role.CreatedAt, back.CreatedAt)
}

func privilegeIDs(p Permission) []int64 {
	ids := make([]int64, 0, len(p.Privileges))
	for _, priv := range p.Privileges {
		ids = append(ids, priv.ID)
	}
	return ids
}
