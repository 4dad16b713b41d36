package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/LauraGA777/gmsf/internal/app"
	"github.com/LauraGA777/gmsf/internal/platform/cache"
	"github.com/LauraGA777/gmsf/internal/platform/db"
	"github.com/LauraGA777/gmsf/internal/rbac"
	"github.com/LauraGA777/gmsf/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	accessCache := cache.NewJSON(redisClient, "access:", cfg.AccessCacheTTL)
	rbacService := rbac.NewService(rbac.NewRepository(pool), accessCache, logger)
	refreshJob := jobs.NewAccessRefreshJob(rbacService, logger, nil)

	flushTask, err := jobs.NewCacheFlushTask(time.Now().UTC())
	if err != nil {
		logger.Error("build flush task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers:  refreshJob.Handlers(),
		Cron: []jobs.CronRegistration{
			{Spec: cfg.AccessFlushCron, Task: flushTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
