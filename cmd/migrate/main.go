package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/LauraGA777/gmsf/internal/app"
	"github.com/LauraGA777/gmsf/internal/platform/db"
	"github.com/LauraGA777/gmsf/migrations"
)

func main() {
	steps := flag.Int("steps", 1, "migrations to roll back with down")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: migrate [-steps n] up|down")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	ctx := context.Background()
	pool, err := db.New(ctx, cfg.PGDSN, 2)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	switch flag.Arg(0) {
	case "up":
		err = migrations.Up(ctx, pool, logger)
	case "down":
		err = migrations.Down(ctx, pool, logger, *steps)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("migrate", slog.String("direction", flag.Arg(0)), slog.Any("error", err))
		os.Exit(1)
	}
}
