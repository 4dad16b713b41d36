package access

// NormalizeCatalog flattens either catalog shape into permissions in catalog
// order with every privilege unselected. Modules win over a flat list when a
// response carries both.
func NormalizeCatalog(data CatalogData) []Permission {
	modules := append(append([]WireModule(nil), data.Modulos...), data.Modules...)
	if len(modules) > 0 {
		return NormalizeModules(modules)
	}
	flat := append(append([]WirePermission(nil), data.Permisos...), data.Permissions...)
	return NormalizeModules([]WireModule{{Permissions: flat}})
}

// NormalizeModules is the single adapter from the three module shapes
// (single permission, permission list, module-level privileges) to the
// canonical permission list. Duplicate permissions are merged, a privilege
// belongs to the first permission that lists it, and module-level privileges
// are gathered under one placeholder permission per module.
func NormalizeModules(modules []WireModule) []Permission {
	n := normalizer{
		permIndex:   make(map[int64]int),
		placeholder: make(map[string]int),
		seenPriv:    make(map[int64]struct{}),
	}
	for _, m := range modules {
		label := m.Label()
		for _, wp := range m.permissions() {
			if wp.PermissionID == 0 {
				n.addPlaceholder(moduleLabel(label, wp), wp.Privileges)
				continue
			}
			n.addPermission(label, wp)
		}
		if privs := m.modulePrivileges(); len(privs) > 0 {
			if label == "" {
				label = DefaultModule
			}
			n.addPlaceholder(label, privs)
		}
	}
	return n.out
}

type normalizer struct {
	out         []Permission
	permIndex   map[int64]int
	placeholder map[string]int
	seenPriv    map[int64]struct{}
	nextSynth   int64
}

func (n *normalizer) addPermission(label string, wp WirePermission) {
	i, ok := n.permIndex[wp.PermissionID]
	if !ok {
		i = len(n.out)
		n.permIndex[wp.PermissionID] = i
		n.out = append(n.out, Permission{
			ID:          wp.PermissionID,
			Name:        wp.PermissionName,
			Code:        wp.PermissionCode,
			Description: wp.PermissionDescription,
			Module:      moduleLabel(label, wp),
		})
	}
	n.out[i].Privileges = n.appendPrivileges(n.out[i].Privileges, wp.Privileges)
}

func (n *normalizer) addPlaceholder(label string, privs []WirePrivilege) {
	i, ok := n.placeholder[label]
	if !ok {
		n.nextSynth--
		i = len(n.out)
		n.placeholder[label] = i
		n.out = append(n.out, Permission{
			ID:          n.nextSynth,
			Name:        label,
			Module:      label,
			Placeholder: true,
		})
	}
	n.out[i].Privileges = n.appendPrivileges(n.out[i].Privileges, privs)
}

func (n *normalizer) appendPrivileges(dst []Privilege, privs []WirePrivilege) []Privilege {
	for _, wp := range privs {
		if _, dup := n.seenPriv[wp.ID]; dup {
			continue
		}
		n.seenPriv[wp.ID] = struct{}{}
		dst = append(dst, Privilege{ID: wp.ID, Name: wp.Name, Code: wp.Code})
	}
	return dst
}

func moduleLabel(label string, wp WirePermission) string {
	if label != "" {
		return label
	}
	if wp.Module != "" {
		return wp.Module
	}
	return InferModule(wp.PermissionName, wp.PermissionCode)
}

// GrantedPrivilegeIDs collects the privilege ids granted by a role response,
// whatever the module nesting, in first-seen order.
func GrantedPrivilegeIDs(modules []WireModule) []int64 {
	seen := make(map[int64]struct{})
	var ids []int64
	add := func(privs []WirePrivilege) {
		for _, p := range privs {
			if p.Selected != nil && !*p.Selected {
				continue
			}
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			ids = append(ids, p.ID)
		}
	}
	for _, m := range modules {
		for _, wp := range m.permissions() {
			add(wp.Privileges)
		}
		add(m.modulePrivileges())
	}
	return ids
}
