// Package roleeditor drives one role-editing session: it loads the catalog,
// resolves a role's grants against it and submits the edited selection.
package roleeditor

import (
	"context"
	"log/slog"

	"github.com/LauraGA777/gmsf/internal/access"
)

// API is the subset of the roles API the editor needs. *rolesapi.Client
// satisfies it.
type API interface {
	Catalog(ctx context.Context) (access.CatalogData, error)
	RolePermissions(ctx context.Context, roleID int64) (access.Role, []access.WireModule, error)
	CreateRole(ctx context.Context, payload access.RolePayload) (access.Role, error)
	UpdateRole(ctx context.Context, roleID int64, payload access.RolePayload) (access.Role, error)
}

// CatalogStatus distinguishes an empty catalog from one that failed to load.
type CatalogStatus int

const (
	CatalogLoaded CatalogStatus = iota
	CatalogEmpty
	CatalogFailed
)

func (s CatalogStatus) String() string {
	switch s {
	case CatalogEmpty:
		return "empty"
	case CatalogFailed:
		return "failed"
	default:
		return "loaded"
	}
}

// CatalogResult is the outcome of a catalog load. On failure Permissions is
// empty and Err holds the cause, so editing can proceed.
type CatalogResult struct {
	Permissions []access.Permission
	Status      CatalogStatus
	Err         error
}

// Loader fetches the permission catalog.
type Loader struct {
	api    API
	logger *slog.Logger
}

// NewLoader constructs a Loader.
func NewLoader(api API, logger *slog.Logger) Loader {
	return Loader{api: api, logger: logger}
}

// LoadCatalog fetches and normalizes the catalog with nothing selected.
func (l Loader) LoadCatalog(ctx context.Context) CatalogResult {
	data, err := l.api.Catalog(ctx)
	if err != nil {
		if l.logger != nil {
			l.logger.Warn("load permission catalog", slog.Any("error", err))
		}
		return CatalogResult{Status: CatalogFailed, Err: err}
	}
	perms := access.NormalizeCatalog(data)
	if len(perms) == 0 {
		return CatalogResult{Status: CatalogEmpty}
	}
	return CatalogResult{Permissions: perms, Status: CatalogLoaded}
}
