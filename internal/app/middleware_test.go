package app

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LauraGA777/gmsf/internal/observability"
	"github.com/LauraGA777/gmsf/internal/shared"
)

func newSessions(t *testing.T) (*shared.SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return shared.NewSessionStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Hour), mr
}

func sessionProbe(t *testing.T, mw func(http.Handler) http.Handler, token string) (int, *shared.Session) {
	t.Helper()
	var seen *shared.Session
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = shared.SessionFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code, seen
}

func TestSessionMiddleware(t *testing.T) {
	sessions, mr := newSessions(t)
	mw := SessionMiddleware(sessions, slog.Default())
	sess, err := sessions.Create(context.Background(), 4, 2)
	require.NoError(t, err)

	code, seen := sessionProbe(t, mw, sess.Token)
	assert.Equal(t, http.StatusNoContent, code)
	require.NotNil(t, seen)
	assert.Equal(t, int64(4), seen.UserID)

	code, seen = sessionProbe(t, mw, "")
	assert.Equal(t, http.StatusNoContent, code)
	assert.Nil(t, seen)

	code, seen = sessionProbe(t, mw, "d0a1e0b6-5c4b-4f6e-9d5e-1f2a3b4c5d6e")
	assert.Equal(t, http.StatusNoContent, code)
	assert.Nil(t, seen)

	mr.Close()
	code, _ = sessionProbe(t, mw, sess.Token)
	assert.Equal(t, http.StatusInternalServerError, code)
}

func TestRouterEnvelopes(t *testing.T) {
	sessions, _ := newSessions(t)
	router := NewRouter(RouterParams{
		Logger:   slog.Default(),
		Config:   &Config{AppEnv: "development", RateLimitPerMinute: 2},
		Sessions: sessions,
		Metrics:  observability.NewMetrics(),
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"status":"error","message":"Recurso no encontrado"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"error"`)
}

func TestConfigValidate(t *testing.T) {
	valid := Config{PGDSN: "postgres://x", SessionTTL: time.Hour, AccessCacheTTL: time.Minute, RateLimitPerMinute: 10}
	require.NoError(t, valid.validate())

	broken := valid
	broken.SessionTTL = 0
	assert.Error(t, broken.validate())

	broken = valid
	broken.RateLimitPerMinute = 0
	assert.Error(t, broken.validate())

	broken = valid
	broken.PGDSN = ""
	assert.Error(t, broken.validate())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}
