package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/LauraGA777/gmsf/internal/access"
)

func mark(s access.State) string {
	switch s {
	case access.StateAll:
		return "[x]"
	case access.StatePartial:
		return "[~]"
	default:
		return "[ ]"
	}
}

// printTree writes the selection grouped by module with tri-state marks.
// Placeholder permissions carry synthetic ids, so none is printed for them.
func printTree(w io.Writer, sel *access.Selection) {
	for _, group := range sel.Modules() {
		fmt.Fprintf(w, "%s %s\n", mark(group.State()), group.Label)
		for _, p := range group.Permissions {
			if p.Placeholder {
				fmt.Fprintf(w, "  %s (privilegios del módulo)\n", mark(p.State()))
			} else {
				fmt.Fprintf(w, "  %s %d %s%s\n", mark(p.State()), p.ID, p.Name, codeSuffix(p.Code))
			}
			for _, priv := range p.Privileges {
				state := access.StateNone
				if priv.Selected {
					state = access.StateAll
				}
				fmt.Fprintf(w, "      %s %d %s%s\n", mark(state), priv.ID, priv.Name, codeSuffix(priv.Code))
			}
		}
	}
}

func codeSuffix(code string) string {
	if code == "" {
		return ""
	}
	return " (" + code + ")"
}

func activeLabel(active bool) string {
	if active {
		return "activo"
	}
	return "inactivo"
}

func printRoles(w io.Writer, roles []access.Role) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCÓDIGO\tNOMBRE\tESTADO")
	for _, r := range roles {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.ID, r.Code, r.Name, activeLabel(r.Active))
	}
	return tw.Flush()
}

func printUsers(w io.Writer, users []access.User) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNOMBRE\tEMAIL\tESTADO")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, activeLabel(u.Active))
	}
	return tw.Flush()
}
