package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/LauraGA777/gmsf/internal/access"
	"github.com/LauraGA777/gmsf/internal/rolesapi"
)

type cli struct {
	baseURL   string
	tokenFile string
	timeout   time.Duration
	verbose   bool
	out       string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	logger *slog.Logger
	api    *rolesapi.Client
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	c := &cli{stdin: stdin, stdout: stdout, stderr: stderr}
	root := c.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "error:", describe(err))
		return 1
	}
	return 0
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rolectl",
		Short:         "Administración de roles y privilegios del gimnasio",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&c.baseURL, "api-url", envOr("ROLECTL_URL", "http://localhost:8080"), "URL base del API (env ROLECTL_URL)")
	flags.StringVar(&c.tokenFile, "token-file", defaultTokenFile(), "Archivo donde se guarda la sesión (env ROLECTL_TOKEN_FILE)")
	flags.DurationVar(&c.timeout, "timeout", 30*time.Second, "Tiempo máximo por solicitud")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "Registrar solicitudes en stderr")
	flags.StringVar(&c.out, "out", "text", "Formato de salida: text|json")

	root.AddCommand(c.loginCmd(), c.logoutCmd(), c.whoamiCmd(), c.catalogCmd(), c.rolesCmd())
	return root
}

func (c *cli) setup() error {
	if c.out != "text" && c.out != "json" {
		return fmt.Errorf("formato de salida desconocido %q", c.out)
	}
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	c.logger = slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: level}))

	token, err := readToken(c.tokenFile)
	if err != nil {
		return err
	}
	c.api = rolesapi.New(c.baseURL,
		rolesapi.WithHTTPClient(&http.Client{Timeout: c.timeout}),
		rolesapi.WithLogger(c.logger),
		rolesapi.WithToken(token),
	)
	return nil
}

// action runs fn with the command context. A rejected credential removes
// the stored token so the next command starts from login.
func (c *cli) action(fn func(ctx context.Context, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd.Context(), args)
		if rolesapi.SessionExpired(err) {
			if cerr := clearToken(c.tokenFile); cerr != nil {
				c.logger.Warn("clear token", slog.Any("error", cerr))
			}
		}
		return err
	}
}

func (c *cli) requireToken() error {
	if c.api.Token() == "" {
		return errors.New("no hay sesión activa, ejecute rolectl login")
	}
	return nil
}

func describe(err error) string {
	if rolesapi.SessionExpired(err) {
		return "sesión expirada, ejecute rolectl login"
	}
	var verr *access.ValidationError
	if errors.As(err, &verr) {
		return "datos inválidos" + fieldLines(verr.Fields)
	}
	var apiErr *rolesapi.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message + fieldLines(apiErr.Fields)
	}
	return err.Error()
}

func fieldLines(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "\n  %s: %s", k, fields[k])
	}
	return b.String()
}
