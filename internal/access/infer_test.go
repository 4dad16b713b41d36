package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferModule(t *testing.T) {
	tests := []struct {
		name, code, want string
	}{
		{"Gestión de Clientes", "client_read", "Client Management"},
		{"Usuarios", "", "User Management"},
		{"", "ROLE_EDIT", "Role Management"},
		{"Contratos", "contracts", "Contract Management"},
		{"Membresías", "", "Membership Management"},
		{"Asistencia", "", "Attendance Control"},
		{"Horarios de clase", "", "Schedule Management"},
		{"Servicios", "", "Service Management"},
		{"Entrenadores", "", "Trainer Management"},
		{"Panel", "DASHBOARD", "Dashboard"},
		{"Reportes", "reports", DefaultModule},
		{"", "", DefaultModule},
	}
	for _, tc := range tests {
		t.Run(tc.name+"/"+tc.code, func(t *testing.T) {
			assert.Equal(t, tc.want, InferModule(tc.name, tc.code))
		})
	}
}

func TestInferModuleFirstRuleWins(t *testing.T) {
	// "user" precedes "client" in the rule order.
	assert.Equal(t, "User Management", InferModule("Clientes y usuarios", ""))
}

func TestInferModuleIsDeterministic(t *testing.T) {
	for i := 0; i < 50; i++ {
		assert.Equal(t, "Client Management", InferModule("Gestión de Clientes", "client_read"))
	}
}

func TestInferModuleCustomRules(t *testing.T) {
	rules := []ModuleRule{{Keywords: []string{"caja"}, Label: "Cash"}}
	assert.Equal(t, "Cash", inferModule(rules, "CAJA diaria", ""))
	assert.Equal(t, DefaultModule, inferModule(rules, "Clientes", ""))
}

func TestInferModuleMatchesWordStarts(t *testing.T) {
	tests := []struct {
		name, code, want string
	}{
		{"Control de Asistencia", "ATTENDANCE_CONTROL", "Attendance Control"},
		{"Control de acceso", "", DefaultModule},
		{"Nómina", "payroll", DefaultModule},
		{"Gestión de Roles", "ROLE_VIEW", "Role Management"},
		{"", "roles.assign", "Role Management"},
		{"Clientes/Usuarios", "", "User Management"},
	}
	for _, tc := range tests {
		t.Run(tc.name+"/"+tc.code, func(t *testing.T) {
			assert.Equal(t, tc.want, InferModule(tc.name, tc.code))
		})
	}
}

func TestSplitWords(t *testing.T) {
	assert.Equal(t, []string{"attendance", "control"}, splitWords("attendance_control"))
	assert.Equal(t, []string{"gestion", "de", "roles"}, splitWords("gestion de roles"))
	assert.Empty(t, splitWords(" _ "))
}

func TestFold(t *testing.T) {
	assert.Equal(t, "gestion de membresias", fold("  Gestión de Membresías "))
	assert.Equal(t, "client_delete", fold("CLIENT_DELETE"))
}
