package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/LauraGA777/gmsf/internal/access"
	"github.com/LauraGA777/gmsf/internal/roleeditor"
)

func parseRoleID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("identificador de rol inválido %q", arg)
	}
	return id, nil
}

func (c *cli) rolesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Consultar y modificar roles",
	}
	cmd.AddCommand(
		c.rolesListCmd(),
		c.rolesShowCmd(),
		c.rolesUsersCmd(),
		c.roleWriteCmd("create", "Crear un rol"),
		c.roleWriteCmd("edit <id>", "Editar un rol existente"),
		c.rolesDeleteCmd(),
		c.rolesActiveCmd("deactivate <id>", "Desactivar un rol", false),
		c.rolesActiveCmd("activate <id>", "Activar un rol", true),
	)
	return cmd
}

func (c *cli) rolesListCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "list", Short: "Listar roles", Args: cobra.NoArgs}
	cmd.RunE = c.action(func(ctx context.Context, args []string) error {
		if err := c.requireToken(); err != nil {
			return err
		}
		roles, err := c.api.ListRoles(ctx)
		if err != nil {
			return err
		}
		if c.out == "json" {
			wire := make([]access.WireRole, len(roles))
			for i, r := range roles {
				wire[i] = access.NewWireRole(r)
			}
			return c.printJSON(access.RolesData{Roles: wire})
		}
		return printRoles(c.stdout, roles)
	})
	return cmd
}

func (c *cli) rolesShowCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "show <id>", Short: "Mostrar los privilegios de un rol", Args: cobra.ExactArgs(1)}
	cmd.RunE = c.action(func(ctx context.Context, args []string) error {
		id, err := parseRoleID(args[0])
		if err != nil {
			return err
		}
		if err := c.requireToken(); err != nil {
			return err
		}
		editor := roleeditor.NewEditor(c.api, c.logger)
		sess, err := editor.Open(ctx, id)
		if err != nil {
			return err
		}
		defer editor.Close()
		if c.out == "json" {
			return c.printJSON(access.RolePermissionsData{
				Rol:     access.NewWireRole(sess.Role),
				Modulos: access.NewWireModules(sess.Selection.Permissions(), false),
			})
		}
		fmt.Fprintf(c.stdout, "%s %s (%s)\n%s\n\n", sess.Role.Code, sess.Role.Name, activeLabel(sess.Role.Active), sess.Role.Description)
		c.warnCatalog(sess)
		printTree(c.stdout, sess.Selection)
		return nil
	})
	return cmd
}

func (c *cli) rolesUsersCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "users <id>", Short: "Listar los usuarios de un rol", Args: cobra.ExactArgs(1)}
	cmd.RunE = c.action(func(ctx context.Context, args []string) error {
		id, err := parseRoleID(args[0])
		if err != nil {
			return err
		}
		if err := c.requireToken(); err != nil {
			return err
		}
		users, err := c.api.RoleUsers(ctx, id)
		if err != nil {
			return err
		}
		if c.out == "json" {
			wire := make([]access.WireUser, len(users))
			for i, u := range users {
				wire[i] = access.WireUser{ID: u.ID, Nombre: u.Name, Email: u.Email, Estado: u.Active}
			}
			return c.printJSON(access.UsersData{Usuarios: wire})
		}
		if len(users) == 0 {
			fmt.Fprintln(c.stdout, "El rol no tiene usuarios asignados")
			return nil
		}
		return printUsers(c.stdout, users)
	})
	return cmd
}

type toggles struct {
	grantPermissions  []int64
	revokePermissions []int64
	grant             []int64
	revoke            []int64
}

// apply runs permission toggles before privilege toggles, grants before
// revokes, so a single privilege can be excluded from a granted permission.
func (t toggles) apply(sel *access.Selection) error {
	steps := []struct {
		ids    []int64
		on     bool
		toggle func(int64, bool) error
	}{
		{t.grantPermissions, true, sel.TogglePermission},
		{t.revokePermissions, false, sel.TogglePermission},
		{t.grant, true, sel.TogglePrivilege},
		{t.revoke, false, sel.TogglePrivilege},
	}
	for _, step := range steps {
		for _, id := range step.ids {
			if err := step.toggle(id, step.on); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *cli) roleWriteCmd(use, short string) *cobra.Command {
	var (
		form   access.RoleForm
		t      toggles
		dryRun bool
	)
	editing := use != "create"
	var argRule cobra.PositionalArgs = cobra.NoArgs
	if editing {
		argRule = cobra.ExactArgs(1)
	}
	cmd := &cobra.Command{Use: use, Short: short, Args: argRule}
	flags := cmd.Flags()
	flags.StringVar(&form.Name, "name", "", "Nombre del rol")
	flags.StringVar(&form.Description, "description", "", "Descripción del rol")
	flags.BoolVar(&form.Active, "active", true, "Estado del rol")
	flags.Int64SliceVar(&t.grantPermissions, "grant-permission", nil, "Conceder todos los privilegios de un permiso")
	flags.Int64SliceVar(&t.revokePermissions, "revoke-permission", nil, "Retirar todos los privilegios de un permiso")
	flags.Int64SliceVar(&t.grant, "grant", nil, "Conceder un privilegio")
	flags.Int64SliceVar(&t.revoke, "revoke", nil, "Retirar un privilegio")
	flags.BoolVar(&dryRun, "dry-run", false, "Mostrar la selección resultante sin guardar")

	cmd.RunE = c.action(func(ctx context.Context, args []string) error {
		var id int64
		if editing {
			var err error
			if id, err = parseRoleID(args[0]); err != nil {
				return err
			}
		}
		if err := c.requireToken(); err != nil {
			return err
		}
		editor := roleeditor.NewEditor(c.api, c.logger)
		sess, err := editor.Open(ctx, id)
		if err != nil {
			return err
		}
		defer editor.Close()
		if sess.Catalog == roleeditor.CatalogFailed {
			return fmt.Errorf("catálogo de permisos no disponible: %w", sess.CatalogErr)
		}

		if editing {
			if !flags.Changed("name") {
				form.Name = sess.Role.Name
			}
			if !flags.Changed("description") {
				form.Description = sess.Role.Description
			}
			if !flags.Changed("active") {
				form.Active = sess.Role.Active
			}
		}
		if err := t.apply(sess.Selection); err != nil {
			return err
		}
		if dryRun {
			printTree(c.stdout, sess.Selection)
			return nil
		}

		role, err := editor.Submit(ctx, sess, form)
		if err != nil {
			return err
		}
		verb := "creado"
		if editing {
			verb = "actualizado"
		}
		fmt.Fprintf(c.stdout, "Rol %s: %d %s\n", verb, role.ID, role.Name)
		return nil
	})
	return cmd
}

func (c *cli) rolesDeleteCmd() *cobra.Command {
	var confirmed bool
	cmd := &cobra.Command{Use: "delete <id>", Short: "Eliminar un rol sin usuarios", Args: cobra.ExactArgs(1)}
	cmd.Flags().BoolVar(&confirmed, "yes", false, "Confirmar la eliminación")
	cmd.RunE = c.action(func(ctx context.Context, args []string) error {
		id, err := parseRoleID(args[0])
		if err != nil {
			return err
		}
		if !confirmed {
			return errors.New("la eliminación requiere --yes")
		}
		if err := c.requireToken(); err != nil {
			return err
		}
		if err := c.api.DeleteRole(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "Rol %d eliminado\n", id)
		return nil
	})
	return cmd
}

func (c *cli) rolesActiveCmd(use, short string, active bool) *cobra.Command {
	cmd := &cobra.Command{Use: use, Short: short, Args: cobra.ExactArgs(1)}
	cmd.RunE = c.action(func(ctx context.Context, args []string) error {
		id, err := parseRoleID(args[0])
		if err != nil {
			return err
		}
		if err := c.requireToken(); err != nil {
			return err
		}
		if err := c.api.SetRoleActive(ctx, id, active); err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "Rol %d %s\n", id, activeLabel(active))
		return nil
	})
	return cmd
}

func (c *cli) catalogCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "catalog", Short: "Mostrar el catálogo de permisos y privilegios", Args: cobra.NoArgs}
	cmd.RunE = c.action(func(ctx context.Context, args []string) error {
		if err := c.requireToken(); err != nil {
			return err
		}
		res := roleeditor.NewLoader(c.api, c.logger).LoadCatalog(ctx)
		switch res.Status {
		case roleeditor.CatalogFailed:
			return res.Err
		case roleeditor.CatalogEmpty:
			fmt.Fprintln(c.stdout, "El catálogo está vacío")
			return nil
		}
		if c.out == "json" {
			return c.printJSON(access.CatalogData{Modulos: access.NewWireModules(res.Permissions, false)})
		}
		printTree(c.stdout, access.NewSelection(res.Permissions, nil))
		return nil
	})
	return cmd
}

func (c *cli) warnCatalog(sess *roleeditor.Session) {
	switch sess.Catalog {
	case roleeditor.CatalogFailed:
		fmt.Fprintf(c.stderr, "advertencia: catálogo no disponible: %v\n", sess.CatalogErr)
	case roleeditor.CatalogEmpty:
		fmt.Fprintln(c.stderr, "advertencia: el catálogo está vacío")
	}
}
