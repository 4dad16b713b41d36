package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAccessRoleRefresh drops cached privileges of every holder of a role.
	TaskAccessRoleRefresh = "access:role_refresh"
	// TaskAccessCacheFlush drops every cached privilege entry.
	TaskAccessCacheFlush = "access:cache_flush"
)

// RoleRefreshPayload identifies the role whose holders must be refreshed.
type RoleRefreshPayload struct {
	RoleID int64 `json:"role_id"`
}

// CacheFlushPayload carries scheduling metadata.
type CacheFlushPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewRoleRefreshTask constructs the refresh task for a role. Refreshes of the
// same role collapse while one is pending.
func NewRoleRefreshTask(roleID int64) (*asynq.Task, error) {
	if roleID <= 0 {
		return nil, fmt.Errorf("jobs: invalid role id %d", roleID)
	}
	body, err := json.Marshal(RoleRefreshPayload{RoleID: roleID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAccessRoleRefresh, body,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(5),
		asynq.Unique(time.Minute),
	), nil
}

// NewCacheFlushTask constructs the periodic flush task.
func NewCacheFlushTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(CacheFlushPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAccessCacheFlush, body, asynq.Queue(QueueDefault)), nil
}
