package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/LauraGA777/gmsf/internal/access"
	"github.com/LauraGA777/gmsf/internal/platform/httpx"
	"github.com/LauraGA777/gmsf/internal/shared"
)

// PrivilegeSource resolves the privileges a user holds.
type PrivilegeSource interface {
	Effective(ctx context.Context, userID int64) ([]access.WireModule, error)
}

// RoleLookup fetches a role for display.
type RoleLookup interface {
	GetRole(ctx context.Context, id int64) (access.Role, error)
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	sessions   *shared.SessionStore
	privileges PrivilegeSource
	roles      RoleLookup
	validator  *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionStore, privileges PrivilegeSource, roles RoleLookup) *Handler {
	return &Handler{
		logger:     logger,
		service:    service,
		sessions:   sessions,
		privileges: privileges,
		roles:      roles,
		validator:  validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/me", h.handleMe)
}

type loginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload access.LoginPayload
	if err := httpx.DecodeJSON(w, r, &payload); err != nil {
		httpx.RespondError(w, err)
		return
	}
	form := loginForm{Email: strings.TrimSpace(payload.Email), Password: payload.Password}
	if err := h.validator.Struct(form); err != nil {
		fields := make(map[string]string)
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				fields[strings.ToLower(fe.Field())] = fe.Tag()
			}
		}
		httpx.Fail(w, http.StatusBadRequest, "Datos inválidos", fields)
		return
	}

	user, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
	if err != nil {
		h.log().Info("login rejected", slog.String("email", form.Email))
		httpx.Fail(w, http.StatusUnauthorized, "Email o contraseña inválidos", nil)
		return
	}
	sess, err := h.sessions.Create(r.Context(), user.ID, user.RoleID)
	if err != nil {
		h.log().Error("create session", slog.Int64("user_id", user.ID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.log().Info("login", slog.Int64("user_id", user.ID))
	httpx.Success(w, http.StatusOK, "Inicio de sesión exitoso", access.SessionData{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		Usuario:   wireUser(user),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := shared.BearerToken(r); token != "" {
		if err := h.sessions.Destroy(r.Context(), token); err != nil {
			h.log().Warn("destroy session", slog.Any("error", err))
		}
	}
	httpx.Success(w, http.StatusOK, "Sesión cerrada", nil)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.Fail(w, http.StatusUnauthorized, "Sesión expirada o inválida", nil)
		return
	}
	user, err := h.service.User(r.Context(), sess.UserID)
	if err != nil || !user.IsActive {
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			h.log().Error("load current user", slog.Int64("user_id", sess.UserID), slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		httpx.Fail(w, http.StatusUnauthorized, "Sesión expirada o inválida", nil)
		return
	}
	modules, err := h.privileges.Effective(r.Context(), user.ID)
	if err != nil {
		h.log().Error("effective privileges", slog.Int64("user_id", user.ID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	data := access.MeData{Usuario: wireUser(user), Modulos: modules}
	if role, err := h.roles.GetRole(r.Context(), user.RoleID); err == nil {
		data.Rol = access.NewWireRole(role)
	} else {
		h.log().Warn("load current role", slog.Int64("role_id", user.RoleID), slog.Any("error", err))
		data.Rol = access.WireRole{ID: user.RoleID}
	}
	httpx.Success(w, http.StatusOK, "", data)
}

func (h *Handler) log() *slog.Logger {
	if h.logger == nil {
		return slog.Default()
	}
	return h.logger
}

func wireUser(u *User) access.WireUser {
	return access.WireUser{ID: u.ID, Nombre: u.Name, Email: u.Email, Estado: u.IsActive}
}
