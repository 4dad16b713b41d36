package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/LauraGA777/gmsf/internal/access"
	"github.com/LauraGA777/gmsf/internal/platform/httpx"
)

// PermissionsHandler serves the permission catalog.
type PermissionsHandler struct {
	logger  *slog.Logger
	service *Service
	rbac    Middleware
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, service *Service, rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers the catalog route under /roles.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny("ROLE_VIEW", "ROLE_CREATE", "ROLE_UPDATE")).
		Get("/permissions-privileges", h.listCatalog)
}

func (h *PermissionsHandler) listCatalog(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.Catalog(r.Context())
	if err != nil {
		h.logger.Error("list permission catalog", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	modules := access.NewWireModules(perms, false)
	if modules == nil {
		modules = []access.WireModule{}
	}
	httpx.Success(w, http.StatusOK, "", access.CatalogData{Modulos: modules})
}
