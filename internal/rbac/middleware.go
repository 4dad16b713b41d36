package rbac

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/LauraGA777/gmsf/internal/access"
	"github.com/LauraGA777/gmsf/internal/platform/httpx"
	"github.com/LauraGA777/gmsf/internal/shared"
)

// GateSource resolves the authorization gate of a user.
type GateSource interface {
	Gate(ctx context.Context, userID int64) (access.Gate, error)
}

// DecisionRecorder observes authorization outcomes.
type DecisionRecorder interface {
	ObserveAccessDecision(outcome string)
}

// Authorization outcomes passed to DecisionRecorder.
const (
	OutcomeAllowed         = "allowed"
	OutcomeDenied          = "denied"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeError           = "error"
)

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Service   GateSource
	Logger    *slog.Logger
	Decisions DecisionRecorder
}

// RequireAny ensures the current user holds at least one of the privilege codes.
func (m Middleware) RequireAny(codes ...string) func(http.Handler) http.Handler {
	normalized := normalizeCodes(codes)
	return m.require("require any", normalized, func(g access.Gate) bool {
		return g.HasAnyCode(normalized...)
	})
}

// RequireAll ensures the current user holds every privilege code.
func (m Middleware) RequireAll(codes ...string) func(http.Handler) http.Handler {
	normalized := normalizeCodes(codes)
	return m.require("require all", normalized, func(g access.Gate) bool {
		for _, c := range normalized {
			if !g.HasCode(c) {
				return false
			}
		}
		return true
	})
}

// Authenticated only requires a session.
func (m Middleware) Authenticated() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if shared.SessionFromContext(r.Context()) == nil {
				m.record(OutcomeUnauthenticated)
				httpx.Fail(w, http.StatusUnauthorized, "Sesión expirada o inválida", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) require(op string, codes []string, allowed func(access.Gate) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			if sess == nil {
				m.record(OutcomeUnauthenticated)
				httpx.Fail(w, http.StatusUnauthorized, "Sesión expirada o inválida", nil)
				return
			}
			if len(codes) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			gate, err := m.Service.Gate(r.Context(), sess.UserID)
			if err != nil {
				m.record(OutcomeError)
				if m.Logger != nil {
					m.Logger.Error("rbac "+op, slog.Int64("user_id", sess.UserID), slog.Any("error", err))
				}
				httpx.Fail(w, http.StatusInternalServerError, "Error interno del servidor", nil)
				return
			}
			if !allowed(gate) {
				m.record(OutcomeDenied)
				if m.Logger != nil {
					m.Logger.Info("rbac denied", slog.Int64("user_id", sess.UserID), slog.Any("required", codes), slog.String("path", r.URL.Path))
				}
				httpx.Fail(w, http.StatusForbidden, "No tiene permisos para realizar esta acción", nil)
				return
			}
			m.record(OutcomeAllowed)
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) record(outcome string) {
	if m.Decisions != nil {
		m.Decisions.ObserveAccessDecision(outcome)
	}
}

func normalizeCodes(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	normalized := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		normalized = append(normalized, c)
	}
	return normalized
}
