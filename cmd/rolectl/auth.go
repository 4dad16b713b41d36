package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LauraGA777/gmsf/internal/access"
)

func (c *cli) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Iniciar sesión y guardar el token",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&email, "email", "", "Email del usuario")
	cmd.Flags().StringVar(&password, "password", os.Getenv("ROLECTL_PASSWORD"), "Contraseña (env ROLECTL_PASSWORD; si falta se lee de stdin)")
	_ = cmd.MarkFlagRequired("email")
	cmd.RunE = c.action(func(ctx context.Context, args []string) error {
		if password == "" {
			line, err := bufio.NewReader(c.stdin).ReadString('\n')
			if err != nil && line == "" {
				return errors.New("falta la contraseña")
			}
			password = strings.TrimRight(line, "\r\n")
		}
		data, err := c.api.Login(ctx, email, password)
		if err != nil {
			return err
		}
		if err := writeToken(c.tokenFile, data.Token); err != nil {
			return err
		}
		c.logger.Debug("session stored", slog.String("path", c.tokenFile))
		fmt.Fprintf(c.stdout, "Sesión iniciada como %s (expira %s)\n", data.Usuario.Nombre, data.ExpiresAt.Local().Format("2006-01-02 15:04"))
		return nil
	})
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Cerrar la sesión actual",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = c.action(func(ctx context.Context, args []string) error {
		if c.api.Token() != "" {
			if err := c.api.Logout(ctx); err != nil {
				c.logger.Warn("logout", slog.Any("error", err))
			}
		}
		if err := clearToken(c.tokenFile); err != nil {
			return err
		}
		fmt.Fprintln(c.stdout, "Sesión cerrada")
		return nil
	})
	return cmd
}

func (c *cli) whoamiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Mostrar el usuario actual y sus privilegios",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = c.action(func(ctx context.Context, args []string) error {
		if err := c.requireToken(); err != nil {
			return err
		}
		me, err := c.api.Me(ctx)
		if err != nil {
			return err
		}
		if c.out == "json" {
			return c.printJSON(me)
		}
		role := me.Rol.Role()
		fmt.Fprintf(c.stdout, "%s <%s>\nRol: %s\n", me.Usuario.Nombre, me.Usuario.Email, role.Name)
		codes := access.GateFromModules(me.Modulos).Codes()
		if len(codes) == 0 {
			fmt.Fprintln(c.stdout, "Sin privilegios")
			return nil
		}
		fmt.Fprintln(c.stdout, "Privilegios:")
		for _, code := range codes {
			fmt.Fprintf(c.stdout, "  %s\n", code)
		}
		return nil
	})
	return cmd
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
