package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/LauraGA777/gmsf/internal/access"
	"github.com/LauraGA777/gmsf/internal/auth"
	"github.com/LauraGA777/gmsf/internal/shared"
	_ "github.com/LauraGA777/gmsf/testing"
)

type stubRepo struct {
	users map[string]*auth.User
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	u, ok := s.users[strings.ToLower(email)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

type stubPrivileges map[int64][]access.WireModule

func (s stubPrivileges) Effective(ctx context.Context, userID int64) ([]access.WireModule, error) {
	return s[userID], nil
}

type stubRoles map[int64]access.Role

func (s stubRoles) GetRole(ctx context.Context, id int64) (access.Role, error) {
	r, ok := s[id]
	if !ok {
		return access.Role{}, shared.ErrNotFound
	}
	return r, nil
}

type fixture struct {
	handler  http.Handler
	sessions *shared.SessionStore
	mr       *miniredis.Miniredis
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("correctpass"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &stubRepo{users: map[string]*auth.User{
		"admin@gym.test":    {ID: 1, RoleID: 1, Name: "Admin", Email: "admin@gym.test", PasswordHash: string(hashed), IsActive: true},
		"inactive@gym.test": {ID: 2, RoleID: 1, Name: "Old", Email: "inactive@gym.test", PasswordHash: string(hashed), IsActive: false},
	}}
	mr := miniredis.RunT(t)
	sessions := shared.NewSessionStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour)
	privileges := stubPrivileges{1: {{Nombre: "Roles", Permissions: []access.WirePermission{{
		PermissionID: 3, PermissionName: "Gestión de Roles",
		Privileges: []access.WirePrivilege{{ID: 7, Name: "Ver", Code: "ROLE_VIEW"}},
	}}}}}
	roles := stubRoles{1: {ID: 1, Code: "ROL-0001", Name: "Administrador", Active: true}}

	h := auth.NewHandler(nil, auth.NewService(repo), sessions, privileges, roles)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if sess, err := sessions.Load(req.Context(), shared.BearerToken(req)); err == nil {
				req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Route("/auth", h.MountRoutes)
	return fixture{handler: r, sessions: sessions, mr: mr}
}

type envelope struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

func (f fixture) do(t *testing.T, method, path, token, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func (f fixture) login(t *testing.T) string {
	t.Helper()
	code, env := f.do(t, http.MethodPost, "/auth/login", "", `{"email":"Admin@gym.test","password":"correctpass"}`)
	require.Equal(t, http.StatusOK, code)
	var data access.SessionData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	assert.Equal(t, "admin@gym.test", data.Usuario.Email)
	return data.Token
}

func TestLoginIssuesSession(t *testing.T) {
	f := newFixture(t)
	token := f.login(t)

	sess, err := f.sessions.Load(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), sess.UserID)
	assert.Equal(t, int64(1), sess.RoleID)
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t)
	cases := map[string]string{
		"wrong password": `{"email":"admin@gym.test","password":"wrongpass"}`,
		"unknown user":   `{"email":"nobody@gym.test","password":"correctpass"}`,
		"inactive user":  `{"email":"inactive@gym.test","password":"correctpass"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			code, env := f.do(t, http.MethodPost, "/auth/login", "", body)
			assert.Equal(t, http.StatusUnauthorized, code)
			assert.Equal(t, "Email o contraseña inválidos", env.Message)
		})
	}
}

func TestLoginValidation(t *testing.T) {
	f := newFixture(t)

	code, env := f.do(t, http.MethodPost, "/auth/login", "", `{"email":"not-an-email","password":"short"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "email", env.Errors["email"])
	assert.Equal(t, "min", env.Errors["password"])
}

func TestMeReturnsEffectivePrivileges(t *testing.T) {
	f := newFixture(t)
	token := f.login(t)

	code, env := f.do(t, http.MethodGet, "/auth/me", token, "")
	require.Equal(t, http.StatusOK, code)
	var data access.MeData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "Administrador", data.Rol.Nombre)
	require.Len(t, data.Modulos, 1)
	assert.Equal(t, "ROLE_VIEW", data.Modulos[0].Permissions[0].Privileges[0].Code)
}

func TestMeWithoutSession(t *testing.T) {
	f := newFixture(t)

	code, _ := f.do(t, http.MethodGet, "/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newFixture(t)
	token := f.login(t)

	code, _ := f.do(t, http.MethodPost, "/auth/logout", token, "")
	require.Equal(t, http.StatusOK, code)

	_, err := f.sessions.Load(context.Background(), token)
	assert.ErrorIs(t, err, shared.ErrSessionNotFound)
	code, _ = f.do(t, http.MethodGet, "/auth/me", token, "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestSessionExpires(t *testing.T) {
	f := newFixture(t)
	token := f.login(t)

	f.mr.FastForward(2 * time.Hour)
	code, _ := f.do(t, http.MethodGet, "/auth/me", token, "")
	assert.Equal(t, http.StatusUnauthorized, code)
}
