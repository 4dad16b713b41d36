package shared

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Role audit actions.
const (
	AuditRoleCreated     = "role.created"
	AuditRoleUpdated     = "role.updated"
	AuditRoleActivated   = "role.activated"
	AuditRoleDeactivated = "role.deactivated"
	AuditRoleDeleted     = "role.deleted"
)

// AuditEntry is one row of role_audit. A zero ActorID is filled from the
// session carried by the context.
type AuditEntry struct {
	ActorID int64
	Action  string
	RoleID  int64
	Meta    map[string]any
	At      time.Time
}

// AuditLogger writes role changes into role_audit.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists the entry.
func (l *AuditLogger) Record(ctx context.Context, entry AuditEntry) error {
	if l == nil || l.pool == nil {
		return errors.New("audit logger not initialised")
	}
	entry, err := prepareAudit(ctx, entry)
	if err != nil {
		return err
	}
	meta, err := json.Marshal(entry.Meta)
	if err != nil {
		return fmt.Errorf("encode audit meta: %w", err)
	}
	var actor *int64
	if entry.ActorID != 0 {
		actor = &entry.ActorID
	}
	_, err = l.pool.Exec(ctx,
		`INSERT INTO role_audit (actor_id, action, role_id, meta, occurred_at) VALUES ($1, $2, $3, $4, $5)`,
		actor, entry.Action, entry.RoleID, meta, entry.At)
	return err
}

func prepareAudit(ctx context.Context, entry AuditEntry) (AuditEntry, error) {
	if entry.Action == "" || entry.RoleID <= 0 {
		return entry, errors.New("audit entry requires action and role id")
	}
	if entry.ActorID == 0 {
		if sess := SessionFromContext(ctx); sess != nil {
			entry.ActorID = sess.UserID
		}
	}
	if entry.Meta == nil {
		entry.Meta = map[string]any{}
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	return entry, nil
}
