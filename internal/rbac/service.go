package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/LauraGA777/gmsf/internal/access"
	"github.com/LauraGA777/gmsf/internal/platform/cache"
)

const loadTimeout = 10 * time.Second

// Service resolves effective privileges and caches them per user.
//
// Cached entries carry the version of the role they were built from. Each
// invalidation bumps the role version, so an entry written by a load that
// raced an invalidation is ignored on the next read.
type Service struct {
	repo     Repository
	cache    *cache.JSON
	versions *cache.Counters
	logger   *slog.Logger
	loads    singleflight.Group
}

// effectiveEntry is the cached form of a user's effective privileges.
type effectiveEntry struct {
	RoleID  int64               `json:"role_id"`
	Version int64               `json:"version"`
	Modules []access.WireModule `json:"modules"`
}

// NewService constructs a Service. A nil cache disables caching.
func NewService(repo Repository, store *cache.JSON, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: store, versions: store.Counters("access-version:"), logger: logger}
}

// Catalog returns the full permission catalog with nothing selected.
func (s *Service) Catalog(ctx context.Context) ([]access.Permission, error) {
	return s.repo.Catalog(ctx)
}

// RoleSelection resolves a role's grants against the catalog.
func (s *Service) RoleSelection(ctx context.Context, roleID int64) (*access.Selection, error) {
	catalog, err := s.repo.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := s.repo.RolePrivilegeIDs(ctx, roleID)
	if err != nil {
		return nil, err
	}
	sel := access.NewSelection(catalog, ids)
	if dropped := sel.Dropped(); len(dropped) > 0 {
		s.logWarn("role grants missing from catalog", slog.Int64("role_id", roleID), slog.Any("privilege_ids", dropped))
	}
	return sel, nil
}

// Effective returns the privileges a user holds through their role, grouped
// by module. Users without an effective grant hold nothing.
func (s *Service) Effective(ctx context.Context, userID int64) ([]access.WireModule, error) {
	key := userKey(userID)
	if modules, ok := s.cached(ctx, key, userID); ok {
		return modules, nil
	}

	res := s.loads.DoChan(key, func() (any, error) {
		// Detached from the first caller so its cancellation does not fail
		// the callers sharing this load.
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return s.loadEffective(loadCtx, key, userID)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-res:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.([]access.WireModule), nil
	}
}

func (s *Service) cached(ctx context.Context, key string, userID int64) ([]access.WireModule, bool) {
	var entry effectiveEntry
	hit, err := s.cache.Get(ctx, key, &entry)
	if err != nil {
		s.logWarn("effective privileges cache get", slog.Int64("user_id", userID), slog.Any("error", err))
	}
	if !hit {
		return nil, false
	}
	version, err := s.versions.Get(ctx, roleKey(entry.RoleID))
	if err != nil {
		s.logWarn("role version get", slog.Int64("role_id", entry.RoleID), slog.Any("error", err))
		return nil, false
	}
	if version != entry.Version {
		return nil, false
	}
	if entry.Modules == nil {
		entry.Modules = []access.WireModule{}
	}
	return entry.Modules, true
}

func (s *Service) loadEffective(ctx context.Context, key string, userID int64) ([]access.WireModule, error) {
	grant, err := s.repo.UserGrant(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("rbac: effective privileges: %w", err)
	}
	// The version is read before the grants so a concurrent invalidation
	// always leaves this entry behind the current version.
	version, verr := s.versions.Get(ctx, roleKey(grant.RoleID))
	if verr != nil {
		s.logWarn("role version get", slog.Int64("role_id", grant.RoleID), slog.Any("error", verr))
	}
	modules := []access.WireModule{}
	if grant.Effective() {
		sel, err := s.RoleSelection(ctx, grant.RoleID)
		if err != nil {
			return nil, fmt.Errorf("rbac: effective privileges: %w", err)
		}
		if granted := access.NewWireModules(sel.Permissions(), true); granted != nil {
			modules = granted
		}
	}
	if verr != nil {
		return modules, nil
	}
	entry := effectiveEntry{RoleID: grant.RoleID, Version: version, Modules: modules}
	if err := s.cache.Set(ctx, key, entry); err != nil {
		s.logWarn("effective privileges cache set", slog.Int64("user_id", userID), slog.Any("error", err))
	}
	return modules, nil
}

// Gate returns the authorization gate of a user.
func (s *Service) Gate(ctx context.Context, userID int64) (access.Gate, error) {
	modules, err := s.Effective(ctx, userID)
	if err != nil {
		return access.Gate{}, err
	}
	return access.GateFromModules(modules), nil
}

// InvalidateUsers drops cached privileges of the given users.
func (s *Service) InvalidateUsers(ctx context.Context, userIDs ...int64) (int64, error) {
	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = userKey(id)
	}
	return s.cache.Delete(ctx, keys...)
}

// BumpRole advances the role version, retiring every cached entry built from
// the role's previous grants.
func (s *Service) BumpRole(ctx context.Context, roleID int64) error {
	if _, err := s.versions.Incr(ctx, roleKey(roleID)); err != nil {
		return fmt.Errorf("rbac: bump role %d: %w", roleID, err)
	}
	return nil
}

// InvalidateRole bumps the role version, drops cached privileges of every
// holder of the role and returns how many entries were removed.
func (s *Service) InvalidateRole(ctx context.Context, roleID int64) (int64, error) {
	if err := s.BumpRole(ctx, roleID); err != nil {
		return 0, err
	}
	ids, err := s.repo.RoleUserIDs(ctx, roleID)
	if err != nil {
		return 0, fmt.Errorf("rbac: invalidate role %d: %w", roleID, err)
	}
	return s.InvalidateUsers(ctx, ids...)
}

// RefreshRole invalidates a role synchronously.
func (s *Service) RefreshRole(ctx context.Context, roleID int64) error {
	_, err := s.InvalidateRole(ctx, roleID)
	return err
}

// FlushAll drops every cached entry.
func (s *Service) FlushAll(ctx context.Context) (int64, error) {
	return s.cache.Flush(ctx)
}

func (s *Service) logWarn(msg string, attrs ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, attrs...)
	}
}

func userKey(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}

func roleKey(roleID int64) string {
	return "role:" + strconv.FormatInt(roleID, 10)
}
