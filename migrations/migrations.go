// Package migrations embeds the PostgreSQL schema and applies it.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/LauraGA777/gmsf/internal/platform/db"
)

// FS holds the *_up.sql and *_down.sql files.
//
//go:embed postgres/*.sql
var FS embed.FS

const (
	dir        = "postgres"
	upSuffix   = "_up.sql"
	downSuffix = "_down.sql"
)

// Migration is one versioned schema step.
type Migration struct {
	Version string
	Up      string
	Down    string
}

// Load reads the embedded migrations in ascending version order.
func Load(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("migrations: read dir: %w", err)
	}
	byVersion := make(map[string]*Migration)
	for _, e := range entries {
		name := e.Name()
		var version, suffix string
		switch {
		case strings.HasSuffix(name, upSuffix):
			version, suffix = strings.TrimSuffix(name, upSuffix), upSuffix
		case strings.HasSuffix(name, downSuffix):
			version, suffix = strings.TrimSuffix(name, downSuffix), downSuffix
		default:
			continue
		}
		body, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("migrations: read %s: %w", name, err)
		}
		m, ok := byVersion[version]
		if !ok {
			m = &Migration{Version: version}
			byVersion[version] = m
		}
		if suffix == upSuffix {
			m.Up = string(body)
		} else {
			m.Down = string(body)
		}
	}
	out := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.Up == "" {
			return nil, fmt.Errorf("migrations: %s has no up script", m.Version)
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Up applies every pending migration, each in its own transaction.
func Up(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	all, err := Load(FS)
	if err != nil {
		return err
	}
	if err := ensureTable(ctx, pool); err != nil {
		return err
	}
	applied, err := appliedVersions(ctx, pool)
	if err != nil {
		return err
	}
	for _, m := range all {
		if applied[m.Version] {
			continue
		}
		err := db.WithTx(ctx, pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, m.Up); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.Version)
			return err
		})
		if err != nil {
			return fmt.Errorf("migrations: apply %s: %w", m.Version, err)
		}
		logger.Info("migration applied", slog.String("version", m.Version))
	}
	return nil
}

// Down reverts the most recent steps migrations.
func Down(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger, steps int) error {
	all, err := Load(FS)
	if err != nil {
		return err
	}
	if err := ensureTable(ctx, pool); err != nil {
		return err
	}
	applied, err := appliedVersions(ctx, pool)
	if err != nil {
		return err
	}
	for i := len(all) - 1; i >= 0 && steps > 0; i-- {
		m := all[i]
		if !applied[m.Version] {
			continue
		}
		err := db.WithTx(ctx, pool, func(tx pgx.Tx) error {
			if m.Down != "" {
				if _, err := tx.Exec(ctx, m.Down); err != nil {
					return err
				}
			}
			_, err := tx.Exec(ctx, `DELETE FROM schema_migrations WHERE version = $1`, m.Version)
			return err
		})
		if err != nil {
			return fmt.Errorf("migrations: revert %s: %w", m.Version, err)
		}
		logger.Info("migration reverted", slog.String("version", m.Version))
		steps--
	}
	return nil
}

func ensureTable(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version    TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`)
	if err != nil {
		return fmt.Errorf("migrations: ensure table: %w", err)
	}
	return nil
}

func appliedVersions(ctx context.Context, pool *pgxpool.Pool) (map[string]bool, error) {
	rows, err := pool.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("migrations: list applied: %w", err)
	}
	versions, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("migrations: list applied: %w", err)
	}
	applied := make(map[string]bool, len(versions))
	for _, v := range versions {
		applied[v] = true
	}
	return applied, nil
}
