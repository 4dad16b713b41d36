// Package access models roles, permissions and privileges and the selection
// rules used when a role's grants are edited.
package access

import "time"

// Privilege is the smallest grantable action.
type Privilege struct {
	ID       int64
	Name     string
	Code     string
	Selected bool
}

// Permission groups a fixed, ordered set of privileges under a capability
// area. Placeholder permissions are synthesized for module-level privileges
// that arrive without an owning permission; their IDs are negative and never
// leave the process.
type Permission struct {
	ID          int64
	Name        string
	Code        string
	Description string
	Module      string
	Placeholder bool
	Privileges  []Privilege
}

// State is the tri-state selection of a permission or module.
type State int

const (
	StateNone State = iota
	StatePartial
	StateAll
)

func (s State) String() string {
	switch s {
	case StatePartial:
		return "partial"
	case StateAll:
		return "all"
	default:
		return "none"
	}
}

// State derives the permission's tri-state from its privileges.
func (p Permission) State() State {
	return stateOf(p.Privileges)
}

func stateOf(privs []Privilege) State {
	selected := 0
	for _, priv := range privs {
		if priv.Selected {
			selected++
		}
	}
	switch {
	case selected == 0:
		return StateNone
	case selected == len(privs):
		return StateAll
	default:
		return StatePartial
	}
}

// Role is a named bundle of granted privileges.
type Role struct {
	ID           int64
	Name         string
	Description  string
	Code         string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	PrivilegeIDs []int64
}

// User is a holder of a role, listed for display only.
type User struct {
	ID     int64
	Name   string
	Email  string
	Active bool
}

// ModuleGroup is a display grouping of permissions sharing a module label.
type ModuleGroup struct {
	Label       string
	Permissions []Permission
}

// State derives the module's tri-state from every privilege it contains.
func (g ModuleGroup) State() State {
	var privs []Privilege
	for _, p := range g.Permissions {
		privs = append(privs, p.Privileges...)
	}
	return stateOf(privs)
}

// GroupByModule groups permissions by module label, keeping first-seen order.
func GroupByModule(perms []Permission) []ModuleGroup {
	index := make(map[string]int)
	var groups []ModuleGroup
	for _, p := range perms {
		i, ok := index[p.Module]
		if !ok {
			i = len(groups)
			index[p.Module] = i
			groups = append(groups, ModuleGroup{Label: p.Module})
		}
		groups[i].Permissions = append(groups[i].Permissions, p)
	}
	return groups
}

func clonePermissions(perms []Permission) []Permission {
	out := make([]Permission, len(perms))
	for i, p := range perms {
		out[i] = p
		out[i].Privileges = append([]Privilege(nil), p.Privileges...)
	}
	return out
}
