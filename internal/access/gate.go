package access

import "sort"

type grant struct {
	scopes     []string
	privileges []string
}

// Gate answers authorization questions from a resolved set of granted
// privileges. It is immutable once built.
type Gate struct {
	grants []grant
	codes  map[string]struct{}
}

// NewGate builds a gate from the selected privileges of perms.
func NewGate(perms []Permission) Gate {
	g := Gate{codes: make(map[string]struct{})}
	for _, p := range perms {
		scopes := nonEmptyFolded(p.Name, p.Code, p.Module)
		for _, priv := range p.Privileges {
			if !priv.Selected {
				continue
			}
			if priv.Code != "" {
				g.codes[fold(priv.Code)] = struct{}{}
			}
			g.grants = append(g.grants, grant{scopes: scopes, privileges: nonEmptyFolded(priv.Name, priv.Code)})
		}
	}
	return g
}

// GateFromModules builds a gate from a role-permissions response.
func GateFromModules(modules []WireModule) Gate {
	return NewGate(NewSelection(NormalizeModules(modules), GrantedPrivilegeIDs(modules)).Permissions())
}

// HasPrivilege reports whether a privilege, named by name or code, is
// granted under a permission or module, named by name, code or label.
// Matching ignores case and accents.
func (g Gate) HasPrivilege(moduleOrPermission, privilege string) bool {
	scope, priv := fold(moduleOrPermission), fold(privilege)
	if scope == "" || priv == "" {
		return false
	}
	for _, gr := range g.grants {
		if contains(gr.scopes, scope) && contains(gr.privileges, priv) {
			return true
		}
	}
	return false
}

// HasCode reports whether a privilege code is granted.
func (g Gate) HasCode(code string) bool {
	_, ok := g.codes[fold(code)]
	return ok
}

// HasAnyCode reports whether at least one code is granted. An empty list
// is always allowed.
func (g Gate) HasAnyCode(codes ...string) bool {
	if len(codes) == 0 {
		return true
	}
	for _, c := range codes {
		if g.HasCode(c) {
			return true
		}
	}
	return false
}

// Codes lists granted privilege codes, folded and sorted.
func (g Gate) Codes() []string {
	out := make([]string, 0, len(g.codes))
	for c := range g.codes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func nonEmptyFolded(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if f := fold(v); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
