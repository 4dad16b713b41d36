package access

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPayloadCreateRole(t *testing.T) {
	sel := NewSelection(fixtureCatalog(), nil)
	for _, id := range []int64{10, 11, 21} {
		require.NoError(t, sel.TogglePrivilege(id, true))
	}

	payload, err := BuildPayload(RoleForm{Name: "Recepción", Description: "Front desk", Active: true}, sel)
	require.NoError(t, err)

	assert.Equal(t, "Recepción", payload.Nombre)
	assert.Equal(t, "Front desk", payload.Descripcion)
	assert.True(t, payload.Estado)
	assert.Equal(t, []int64{5, 9}, payload.Permisos)
	assert.Equal(t, []int64{10, 11, 21}, payload.Privilegios)
}

func TestBuildPayloadDeselectKeepsPermissionWhileOnePrivilegeRemains(t *testing.T) {
	sel := NewSelection(fixtureCatalog(), []int64{10, 11})
	form := RoleForm{Name: "Recepción", Description: "Front desk"}

	require.NoError(t, sel.TogglePrivilege(11, false))
	payload, err := BuildPayload(form, sel)
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, payload.Permisos)
	assert.Equal(t, []int64{10}, payload.Privilegios)

	require.NoError(t, sel.TogglePrivilege(21, true))
	require.NoError(t, sel.TogglePrivilege(10, false))
	payload, err = BuildPayload(form, sel)
	require.NoError(t, err)
	assert.NotContains(t, payload.Permisos, int64(5))
	assert.Equal(t, []int64{9}, payload.Permisos)
}

func TestBuildPayloadRoundTrip(t *testing.T) {
	grants := [][]int64{
		{10},
		{10, 11, 12},
		{12, 30},
		{21, 22, 30, 11},
	}
	for _, granted := range grants {
		sel := NewSelection(fixtureCatalog(), granted)
		payload, err := BuildPayload(RoleForm{Name: "R", Description: "D"}, sel)
		require.NoError(t, err)

		assert.ElementsMatch(t, granted, payload.Privilegios)
		owners := map[int64]struct{}{}
		for _, id := range granted {
			owner, ok := sel.OwnerOf(id)
			require.True(t, ok)
			owners[owner] = struct{}{}
		}
		var want []int64
		for id := range owners {
			want = append(want, id)
		}
		assert.ElementsMatch(t, want, payload.Permisos)
	}
}

func TestBuildPayloadValidation(t *testing.T) {
	tests := []struct {
		name    string
		form    RoleForm
		granted []int64
		section string
		fields  []string
	}{
		{name: "empty selection", form: RoleForm{Name: "R", Description: "D"}, section: SectionPermissions, fields: []string{FieldPrivileges}},
		{name: "missing name", form: RoleForm{Name: "  ", Description: "D"}, granted: []int64{10}, section: SectionBasic, fields: []string{FieldName}},
		{name: "missing both", form: RoleForm{}, granted: []int64{10}, section: SectionBasic, fields: []string{FieldName, FieldDescription}},
		{name: "basic wins over selection", form: RoleForm{Name: "R"}, section: SectionBasic, fields: []string{FieldDescription}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := BuildPayload(tc.form, NewSelection(fixtureCatalog(), tc.granted))
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tc.section, verr.Section)
			for _, f := range tc.fields {
				assert.Contains(t, verr.Fields, f)
			}
		})
	}
}

func TestBuildPayloadSkipsPlaceholderPermissions(t *testing.T) {
	catalog := append(fixtureCatalog(), Permission{
		ID: -1, Name: "Dashboard", Module: "Dashboard", Placeholder: true,
		Privileges: []Privilege{{ID: 40, Name: "Ver", Code: "DASHBOARD_VIEW"}},
	})
	sel := NewSelection(catalog, []int64{40, 10})

	payload, err := BuildPayload(RoleForm{Name: "R", Description: "D"}, sel)
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, payload.Permisos)
	assert.Equal(t, []int64{10, 40}, payload.Privilegios)
}

func TestReconcilePayload(t *testing.T) {
	catalog := fixtureCatalog()

	sel, err := ReconcilePayload(catalog, RolePayload{
		Nombre: "Recepción", Descripcion: "Front desk",
		Permisos: []int64{9, 5}, Privilegios: []int64{21, 10, 11},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11, 21}, sel.SelectedPrivilegeIDs())

	_, err = ReconcilePayload(catalog, RolePayload{
		Nombre: "R", Descripcion: "D", Permisos: []int64{5, 9}, Privilegios: []int64{10},
	})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, FieldPermissions)

	_, err = ReconcilePayload(catalog, RolePayload{
		Nombre: "R", Descripcion: "D", Permisos: []int64{5}, Privilegios: []int64{10, 999},
	})
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, FieldPrivileges)

	_, err = ReconcilePayload(catalog, RolePayload{Nombre: "R", Descripcion: "D"})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, SectionPermissions, verr.Section)
}
