package access

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownPrivilege is returned when toggling a privilege absent from the catalog.
	ErrUnknownPrivilege = errors.New("access: unknown privilege")
	// ErrUnknownPermission is returned when toggling a permission absent from the catalog.
	ErrUnknownPermission = errors.New("access: unknown permission")
)

type privRef struct {
	perm int
	idx  int
}

// Selection is the working state of one role-editing session: the catalog
// with per-privilege selection. Permission and module states are always
// projected from the privileges. A Selection has a single writer.
type Selection struct {
	perms   []Permission
	byPerm  map[int64]int
	byPriv  map[int64]privRef
	dropped []int64
}

// NewSelection copies the catalog and selects every privilege in granted.
// Granted ids missing from the catalog are dropped and reported by Dropped.
func NewSelection(catalog []Permission, granted []int64) *Selection {
	s := &Selection{
		perms:  clonePermissions(catalog),
		byPerm: make(map[int64]int, len(catalog)),
		byPriv: make(map[int64]privRef),
	}
	for i := range s.perms {
		s.byPerm[s.perms[i].ID] = i
		for j := range s.perms[i].Privileges {
			s.perms[i].Privileges[j].Selected = false
			s.byPriv[s.perms[i].Privileges[j].ID] = privRef{perm: i, idx: j}
		}
	}
	for _, id := range granted {
		ref, ok := s.byPriv[id]
		if !ok {
			s.dropped = append(s.dropped, id)
			continue
		}
		s.perms[ref.perm].Privileges[ref.idx].Selected = true
	}
	return s
}

// Dropped lists granted privilege ids that were not in the catalog.
func (s *Selection) Dropped() []int64 {
	return append([]int64(nil), s.dropped...)
}

// TogglePrivilege sets one privilege's selection.
func (s *Selection) TogglePrivilege(privilegeID int64, checked bool) error {
	ref, ok := s.byPriv[privilegeID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownPrivilege, privilegeID)
	}
	s.perms[ref.perm].Privileges[ref.idx].Selected = checked
	return nil
}

// TogglePermission sets every privilege of the permission to checked.
// Checking a partially selected permission selects all of it.
func (s *Selection) TogglePermission(permissionID int64, checked bool) error {
	i, ok := s.byPerm[permissionID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownPermission, permissionID)
	}
	for j := range s.perms[i].Privileges {
		s.perms[i].Privileges[j].Selected = checked
	}
	return nil
}

// State returns the tri-state of a permission; unknown permissions are StateNone.
func (s *Selection) State(permissionID int64) State {
	i, ok := s.byPerm[permissionID]
	if !ok {
		return StateNone
	}
	return s.perms[i].State()
}

// IsPermissionFullySelected reports whether every privilege of a non-empty
// permission is selected.
func (s *Selection) IsPermissionFullySelected(permissionID int64) bool {
	return s.State(permissionID) == StateAll
}

// IsPermissionPartiallySelected reports whether some but not all privileges
// of the permission are selected.
func (s *Selection) IsPermissionPartiallySelected(permissionID int64) bool {
	return s.State(permissionID) == StatePartial
}

// IsPrivilegeSelected reports a single privilege's selection.
func (s *Selection) IsPrivilegeSelected(privilegeID int64) bool {
	ref, ok := s.byPriv[privilegeID]
	return ok && s.perms[ref.perm].Privileges[ref.idx].Selected
}

// ModuleState returns the tri-state of all privileges under a module label.
func (s *Selection) ModuleState(label string) State {
	var privs []Privilege
	for _, p := range s.perms {
		if p.Module == label {
			privs = append(privs, p.Privileges...)
		}
	}
	return stateOf(privs)
}

// Permissions returns a copy of the current state in catalog order.
func (s *Selection) Permissions() []Permission {
	return clonePermissions(s.perms)
}

// Modules groups the current state by module for display.
func (s *Selection) Modules() []ModuleGroup {
	return GroupByModule(s.Permissions())
}

// Permission looks up one permission by id.
func (s *Selection) Permission(permissionID int64) (Permission, bool) {
	i, ok := s.byPerm[permissionID]
	if !ok {
		return Permission{}, false
	}
	return clonePermissions(s.perms[i : i+1])[0], true
}

// OwnerOf returns the id of the permission holding the privilege.
func (s *Selection) OwnerOf(privilegeID int64) (int64, bool) {
	ref, ok := s.byPriv[privilegeID]
	if !ok {
		return 0, false
	}
	return s.perms[ref.perm].ID, true
}

// SelectedPrivilegeIDs lists selected privilege ids in catalog order.
func (s *Selection) SelectedPrivilegeIDs() []int64 {
	var ids []int64
	for _, p := range s.perms {
		for _, priv := range p.Privileges {
			if priv.Selected {
				ids = append(ids, priv.ID)
			}
		}
	}
	return ids
}

// SelectedPermissionIDs lists, once each and in catalog order, the real
// permissions holding at least one selected privilege. Placeholders are
// never included.
func (s *Selection) SelectedPermissionIDs() []int64 {
	var ids []int64
	for _, p := range s.perms {
		if p.Placeholder {
			continue
		}
		if p.State() != StateNone {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// Validate rejects an empty selection.
func (s *Selection) Validate() error {
	if len(s.SelectedPrivilegeIDs()) == 0 {
		return &ValidationError{
			Section: SectionPermissions,
			Fields:  map[string]string{FieldPrivileges: "select at least one privilege"},
		}
	}
	return nil
}

// Clone returns an independent copy.
func (s *Selection) Clone() *Selection {
	c := NewSelection(s.perms, s.SelectedPrivilegeIDs())
	c.dropped = append([]int64(nil), s.dropped...)
	return c
}
