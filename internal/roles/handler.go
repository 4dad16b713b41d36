package roles

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/LauraGA777/gmsf/internal/access"
	"github.com/LauraGA777/gmsf/internal/platform/httpx"
	"github.com/LauraGA777/gmsf/internal/rbac"
)

// Privilege codes guarding the role endpoints.
const (
	PrivilegeView   = "ROLE_VIEW"
	PrivilegeCreate = "ROLE_CREATE"
	PrivilegeUpdate = "ROLE_UPDATE"
	PrivilegeDelete = "ROLE_DELETE"
	PrivilegeUsers  = "USER_VIEW"
)

// Handler manages role management endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAny(PrivilegeView)).Get("/", h.listRoles)
	r.With(h.rbac.RequireAny(PrivilegeCreate)).Post("/", h.createRole)
	r.Route("/{id}", func(r chi.Router) {
		r.With(h.rbac.RequireAny(PrivilegeView)).Get("/", h.getRole)
		r.With(h.rbac.RequireAny(PrivilegeView, PrivilegeUpdate)).Get("/permissions", h.rolePermissions)
		r.With(h.rbac.RequireAll(PrivilegeView, PrivilegeUsers)).Get("/users", h.roleUsers)
		r.With(h.rbac.RequireAny(PrivilegeUpdate)).Put("/", h.updateRole)
		r.With(h.rbac.RequireAny(PrivilegeUpdate)).Patch("/deactivate", h.setActive)
		r.With(h.rbac.RequireAny(PrivilegeDelete)).Delete("/", h.deleteRole)
	})
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.fail(w, "list roles", err)
		return
	}
	out := make([]access.WireRole, 0, len(roles))
	for _, role := range roles {
		out = append(out, access.NewWireRole(role))
	}
	httpx.Success(w, http.StatusOK, "", access.RolesData{Roles: out})
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roleID(w, r)
	if !ok {
		return
	}
	role, err := h.service.GetRole(r.Context(), id)
	if err != nil {
		h.fail(w, "get role", err)
		return
	}
	httpx.Success(w, http.StatusOK, "", access.RoleData{Rol: access.NewWireRole(role)})
}

func (h *Handler) rolePermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roleID(w, r)
	if !ok {
		return
	}
	role, sel, err := h.service.RolePermissions(r.Context(), id)
	if err != nil {
		h.fail(w, "role permissions", err)
		return
	}
	modules := access.NewWireModules(sel.Permissions(), true)
	if modules == nil {
		modules = []access.WireModule{}
	}
	httpx.Success(w, http.StatusOK, "", access.RolePermissionsData{Rol: access.NewWireRole(role), Modulos: modules})
}

func (h *Handler) roleUsers(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roleID(w, r)
	if !ok {
		return
	}
	users, err := h.service.RoleUsers(r.Context(), id)
	if err != nil {
		h.fail(w, "role users", err)
		return
	}
	out := make([]access.WireUser, 0, len(users))
	for _, u := range users {
		out = append(out, access.WireUser{ID: u.ID, Nombre: u.Name, Email: u.Email, Estado: u.Active})
	}
	httpx.Success(w, http.StatusOK, "", access.UsersData{Usuarios: out})
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var payload access.RolePayload
	if err := httpx.DecodeJSON(w, r, &payload); err != nil {
		httpx.RespondError(w, err)
		return
	}
	role, err := h.service.CreateRole(r.Context(), payload)
	if err != nil {
		h.fail(w, "create role", err)
		return
	}
	httpx.Success(w, http.StatusCreated, "Rol creado correctamente", access.RoleData{Rol: access.NewWireRole(role)})
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roleID(w, r)
	if !ok {
		return
	}
	var payload access.RolePayload
	if err := httpx.DecodeJSON(w, r, &payload); err != nil {
		httpx.RespondError(w, err)
		return
	}
	role, err := h.service.UpdateRole(r.Context(), id, payload)
	if err != nil {
		h.fail(w, "update role", err)
		return
	}
	httpx.Success(w, http.StatusOK, "Rol actualizado correctamente", access.RoleData{Rol: access.NewWireRole(role)})
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roleID(w, r)
	if !ok {
		return
	}
	var payload access.StatusPayload
	if err := httpx.DecodeJSON(w, r, &payload); err != nil {
		httpx.RespondError(w, err)
		return
	}
	role, err := h.service.SetActive(r.Context(), id, payload.Estado)
	if err != nil {
		h.fail(w, "set role state", err)
		return
	}
	msg := "Rol desactivado correctamente"
	if payload.Estado {
		msg = "Rol activado correctamente"
	}
	httpx.Success(w, http.StatusOK, msg, access.RoleData{Rol: access.NewWireRole(role)})
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.roleID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteRole(r.Context(), id); err != nil {
		h.fail(w, "delete role", err)
		return
	}
	httpx.Success(w, http.StatusOK, "Rol eliminado correctamente", nil)
}

func (h *Handler) roleID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Fail(w, http.StatusBadRequest, "Identificador de rol inválido", nil)
		return 0, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Fail(w, http.StatusNotFound, "Rol no encontrado", nil)
	case errors.Is(err, ErrDuplicate):
		httpx.Fail(w, http.StatusConflict, "Ya existe un rol con ese nombre", nil)
	case errors.Is(err, ErrInUse):
		httpx.Fail(w, http.StatusConflict, "El rol tiene usuarios asignados", nil)
	case errors.Is(err, access.ErrValidation):
		httpx.RespondError(w, err)
	default:
		if h.logger != nil {
			h.logger.Error(op, slog.Any("error", err))
		}
		httpx.RespondError(w, err)
	}
}
