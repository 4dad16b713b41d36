package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/LauraGA777/gmsf/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// AccessInvalidator drops cached effective privileges.
type AccessInvalidator interface {
	InvalidateRole(ctx context.Context, roleID int64) (int64, error)
	FlushAll(ctx context.Context) (int64, error)
}

// AccessRefreshJob keeps cached effective privileges in step with role edits.
type AccessRefreshJob struct {
	Access  AccessInvalidator
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewAccessRefreshJob wires dependencies for the refresh handlers.
func NewAccessRefreshJob(access AccessInvalidator, logger *slog.Logger, metrics *jobmetrics.Metrics) *AccessRefreshJob {
	return &AccessRefreshJob{Access: access, Logger: logger, Metrics: metrics}
}

// HandleRoleRefresh processes TaskAccessRoleRefresh tasks.
func (j *AccessRefreshJob) HandleRoleRefresh(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Access == nil {
		return errors.New("access refresh: handler not configured")
	}
	var payload RoleRefreshPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.RoleID <= 0 {
		j.logger().Warn("discard role refresh task", slog.String("payload", string(t.Payload())))
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track("access_role_refresh")
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	dropped, err := j.Access.InvalidateRole(ctx, payload.RoleID)
	if err != nil {
		j.logger().Error("role refresh", slog.Int64("role_id", payload.RoleID), slog.Any("error", err))
		return err
	}
	j.metrics().AddInvalidated("access_role_refresh", dropped)
	j.logger().Info("role refreshed", slog.Int64("role_id", payload.RoleID), slog.Int64("dropped", dropped))
	return nil
}

// HandleCacheFlush processes TaskAccessCacheFlush tasks.
func (j *AccessRefreshJob) HandleCacheFlush(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Access == nil {
		return errors.New("access refresh: handler not configured")
	}
	tracker := j.metrics().Track("access_cache_flush")
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	dropped, err := j.Access.FlushAll(ctx)
	if err != nil {
		j.logger().Error("access cache flush", slog.Any("error", err))
		return err
	}
	j.metrics().AddInvalidated("access_cache_flush", dropped)
	j.logger().Info("access cache flushed", slog.Int64("dropped", dropped))
	return nil
}

// Handlers returns the task handlers served by the worker.
func (j *AccessRefreshJob) Handlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskAccessRoleRefresh, Handler: j.HandleRoleRefresh},
		{Type: TaskAccessCacheFlush, Handler: j.HandleCacheFlush},
	}
}

func (j *AccessRefreshJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *AccessRefreshJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

// RoleRefresher refreshes the cached privileges of a role's holders.
type RoleRefresher interface {
	RefreshRole(ctx context.Context, roleID int64) error
}

// RoleVersioner retires cached entries built from a role's earlier grants.
type RoleVersioner interface {
	BumpRole(ctx context.Context, roleID int64) error
}

// FallbackRefresher enqueues refreshes and runs them inline when the queue
// rejects the task. The role version is bumped before either path runs, so
// stale entries are ignored even when the queue drops a duplicate task.
type FallbackRefresher struct {
	Versions RoleVersioner
	Queue    RoleRefresher
	Inline   RoleRefresher
	Logger   *slog.Logger
}

// RefreshRole implements RoleRefresher.
func (f FallbackRefresher) RefreshRole(ctx context.Context, roleID int64) error {
	if f.Versions != nil {
		if err := f.Versions.BumpRole(ctx, roleID); err != nil {
			return err
		}
	}
	if f.Queue != nil {
		err := f.Queue.RefreshRole(ctx, roleID)
		if err == nil {
			return nil
		}
		if f.Logger != nil {
			f.Logger.Warn("enqueue role refresh, refreshing inline", slog.Int64("role_id", roleID), slog.Any("error", err))
		}
	}
	if f.Inline == nil {
		return errors.New("access refresh: no refresher configured")
	}
	return f.Inline.RefreshRole(ctx, roleID)
}
