// AngelaMos | 2026
// handler_test.go

package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok(context.Context) error   { return nil }
func down(context.Context) error { return errors.New("connection refused") }

func serve(t *testing.T, h *Handler, path string) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	h.RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestReadiness(t *testing.T) {
	tests := []struct {
		name   string
		deps   []Dependency
		status int
		body   string
	}{
		{
			name:   "all healthy",
			deps:   []Dependency{{Name: "database", Checker: CheckerFunc(ok)}, {Name: "redis", Checker: CheckerFunc(ok)}},
			status: http.StatusOK,
			body:   `"status":"ok"`,
		},
		{
			name:   "required down",
			deps:   []Dependency{{Name: "database", Checker: CheckerFunc(down)}, {Name: "redis", Checker: CheckerFunc(ok)}},
			status: http.StatusServiceUnavailable,
			body:   `"status":"degraded"`,
		},
		{
			name:   "optional down",
			deps:   []Dependency{{Name: "database", Checker: CheckerFunc(ok)}, {Name: "amqp", Checker: CheckerFunc(down), Optional: true}},
			status: http.StatusOK,
			body:   `"healthy":false`,
		},
		{
			name:   "missing checker",
			deps:   []Dependency{{Name: "redis"}},
			status: http.StatusServiceUnavailable,
			body:   "redis checker not configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, NewHandler(tt.deps...), "/readyz")
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.body)
		})
	}
}

func TestShutdownDrains(t *testing.T) {
	h := NewHandler(Dependency{Name: "database", Checker: CheckerFunc(ok)})

	require.Equal(t, http.StatusOK, serve(t, h, "/healthz").Code)

	h.SetShutdown(true)
	assert.Equal(t, http.StatusServiceUnavailable, serve(t, h, "/livez").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(t, h, "/readyz").Code)
}

func TestNotReady(t *testing.T) {
	h := NewHandler()
	h.SetReady(false)

	rec := serve(t, h, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "not_ready")
}
