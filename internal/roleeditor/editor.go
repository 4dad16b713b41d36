package roleeditor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/LauraGA777/gmsf/internal/access"
)

var (
	// ErrStaleSession is returned for a load or submit that belongs to a
	// session superseded by a later Open or Close.
	ErrStaleSession = errors.New("roleeditor: session superseded")
	// ErrSubmitInFlight is returned while another submit is pending.
	ErrSubmitInFlight = errors.New("roleeditor: submit already in progress")
)

// Resolution is a role merged with the catalog.
type Resolution struct {
	Role      access.Role
	Selection *access.Selection
	Catalog   CatalogResult
}

// Resolver merges a role's grants with the catalog.
type Resolver struct {
	api    API
	loader Loader
	logger *slog.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(api API, logger *slog.Logger) Resolver {
	return Resolver{api: api, loader: NewLoader(api, logger), logger: logger}
}

// Resolve fetches the role's grants and the catalog concurrently and marks
// the granted privileges. Grants missing from the catalog are dropped, and
// the selection follows catalog order. A catalog failure is not an error: the
// selection is empty and Catalog reports it.
func (r Resolver) Resolve(ctx context.Context, roleID int64) (Resolution, error) {
	var (
		role    access.Role
		catalog CatalogResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		role, _, err = r.api.RolePermissions(gctx, roleID)
		return err
	})
	g.Go(func() error {
		catalog = r.loader.LoadCatalog(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Resolution{}, err
	}

	sel := access.NewSelection(catalog.Permissions, role.PrivilegeIDs)
	if dropped := sel.Dropped(); len(dropped) > 0 && r.logger != nil {
		r.logger.Info("dropped grants missing from catalog",
			slog.Int64("role_id", roleID),
			slog.Any("privilege_ids", dropped),
		)
	}
	role.PrivilegeIDs = sel.SelectedPrivilegeIDs()
	return Resolution{Role: role, Selection: sel, Catalog: catalog}, nil
}

// Session is the working state of one open editor. RoleID is zero when
// creating a role.
type Session struct {
	Generation uint64
	RoleID     int64
	Role       access.Role
	Selection  *access.Selection
	Catalog    CatalogStatus
	CatalogErr error
}

// Editor opens sessions and submits them. Only the most recently opened
// session is live; results for older ones are discarded.
type Editor struct {
	api      API
	loader   Loader
	resolver Resolver
	logger   *slog.Logger

	generation atomic.Uint64
	submitting atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewEditor constructs an Editor.
func NewEditor(api API, logger *slog.Logger) *Editor {
	return &Editor{
		api:      api,
		loader:   NewLoader(api, logger),
		resolver: NewResolver(api, logger),
		logger:   logger,
	}
}

// Open starts a session for roleID, or for a new role when roleID is zero.
// Any load still running for a previous session is cancelled.
func (e *Editor) Open(ctx context.Context, roleID int64) (*Session, error) {
	gen := e.generation.Add(1)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.swapCancel(cancel)

	sess := &Session{Generation: gen, RoleID: roleID}
	if roleID == 0 {
		catalog := e.loader.LoadCatalog(ctx)
		sess.Selection = access.NewSelection(catalog.Permissions, nil)
		sess.Catalog, sess.CatalogErr = catalog.Status, catalog.Err
	} else {
		res, err := e.resolver.Resolve(ctx, roleID)
		if err != nil {
			if e.generation.Load() != gen {
				return nil, ErrStaleSession
			}
			return nil, err
		}
		sess.Role, sess.Selection = res.Role, res.Selection
		sess.Catalog, sess.CatalogErr = res.Catalog.Status, res.Catalog.Err
	}

	if e.generation.Load() != gen {
		if e.logger != nil {
			e.logger.Debug("discarded stale editor load", slog.Int64("role_id", roleID))
		}
		return nil, ErrStaleSession
	}
	return sess, nil
}

// Close discards the live session and cancels its pending load.
func (e *Editor) Close() {
	e.generation.Add(1)
	e.swapCancel(nil)
}

// Live reports whether sess is the current session.
func (e *Editor) Live(sess *Session) bool {
	return sess != nil && sess.Generation == e.generation.Load()
}

// Submit validates the session and writes it: an update when the session
// edits an existing role, a create otherwise. Validation failures make no
// request. On any failure the selection is left as is. On success the
// session is discarded; callers re-fetch instead of patching local state.
func (e *Editor) Submit(ctx context.Context, sess *Session, form access.RoleForm) (access.Role, error) {
	if !e.Live(sess) {
		return access.Role{}, ErrStaleSession
	}
	if !e.submitting.CompareAndSwap(false, true) {
		return access.Role{}, ErrSubmitInFlight
	}
	defer e.submitting.Store(false)

	payload, err := access.BuildPayload(form, sess.Selection)
	if err != nil {
		return access.Role{}, err
	}

	var role access.Role
	if sess.RoleID != 0 {
		role, err = e.api.UpdateRole(ctx, sess.RoleID, payload)
	} else {
		role, err = e.api.CreateRole(ctx, payload)
	}
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("submit role", slog.Int64("role_id", sess.RoleID), slog.Any("error", err))
		}
		return access.Role{}, err
	}
	e.generation.CompareAndSwap(sess.Generation, sess.Generation+1)
	return role, nil
}

func (e *Editor) swapCancel(cancel context.CancelFunc) {
	e.mu.Lock()
	prev := e.cancel
	e.cancel = cancel
	e.mu.Unlock()
	if prev != nil {
		prev()
	}
}
