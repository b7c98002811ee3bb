// AngelaMos | 2026
// server_test.go

package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/wifi-portal/internal/config"
)

type fakeHealth struct {
	shutdown bool
}

func (f *fakeHealth) SetShutdown(shutdown bool) {
	f.shutdown = shutdown
}

func newTestServer(h *fakeHealth) *Server {
	return New(Config{
		ServerConfig: config.ServerConfig{
			Host:        "127.0.0.1",
			Port:        0,
			ReadTimeout: time.Second,
			IdleTimeout: time.Second,
		},
		HealthHandler: h,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestRouterRecoversPanics(t *testing.T) {
	srv := newTestServer(&fakeHealth{})
	srv.Router().Get("/boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestShutdownMarksHealthDraining(t *testing.T) {
	h := &fakeHealth{}
	srv := newTestServer(h)

	require.NoError(t, srv.Shutdown(context.Background(), 10*time.Millisecond))
	assert.True(t, h.shutdown)
}

func TestShutdownHonoursContext(t *testing.T) {
	srv := newTestServer(&fakeHealth{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, srv.Shutdown(ctx, time.Hour), context.Canceled)
}
