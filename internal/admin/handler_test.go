// AngelaMos | 2026
// handler_test.go

package admin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/wifi-portal/internal/authz"
	"github.com/carterperez-dev/templates/wifi-portal/internal/middleware"
	"github.com/carterperez-dev/templates/wifi-portal/internal/subscription"
)

type statsStub struct {
	stats subscription.Stats
}

func (s statsStub) Stats(context.Context, authz.Actor) (subscription.Stats, error) {
	return s.stats, nil
}

func asAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), middleware.UserIDKey, "admin-1")
		ctx = context.WithValue(ctx, middleware.UserRoleKey, authz.RoleAdmin)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func passThrough(next http.Handler) http.Handler { return next }

func router(h *Handler) http.Handler {
	r := chi.NewRouter()
	h.RegisterRoutes(r, asAdmin, passThrough)
	return r
}

func TestSystemStatsIncludesRevenue(t *testing.T) {
	h := NewHandler(HandlerConfig{
		DBPing:    func(context.Context) error { return nil },
		RedisPing: func(context.Context) error { return errors.New("down") },
		Business:  statsStub{stats: subscription.Stats{Total: 3, Active: 2, Revenue: 7000}},
	})

	rec := httptest.NewRecorder()
	router(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"revenue":7000`)
	assert.Contains(t, body, `"redis":{"healthy":false}`)
	assert.Contains(t, body, `"go_version"`)
}

func TestSubscriptionStatsUnconfigured(t *testing.T) {
	rec := httptest.NewRecorder()
	router(NewHandler(HandlerConfig{})).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/admin/stats/subscriptions", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type streamsStub struct{ user, admin int64 }

func (s streamsStub) OpenStreams() (int64, int64) { return s.user, s.admin }

func TestStreamStats(t *testing.T) {
	h := NewHandler(HandlerConfig{Streams: streamsStub{user: 4, admin: 1}})

	rec := httptest.NewRecorder()
	router(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/stats/streams", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"user":4`)
	assert.Contains(t, rec.Body.String(), `"admin":1`)
}
