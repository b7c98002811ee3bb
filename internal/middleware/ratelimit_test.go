// AngelaMos | 2026
// ratelimit_test.go

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/reset/verify", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := NewRateLimiter(client, RateLimitConfig{
		Limit:   PerMinute(2, 2),
		KeyFunc: KeyByScopeAndIP("reset"),
	}).Handler(okHandler())

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1234").Code)

	limited := hit(h, "10.0.0.1:1234")
	require.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))
	assert.Contains(t, limited.Body.String(), "RATE_LIMITED")

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2:1234").Code)
}

func TestRateLimiterFallsBackWhenRedisIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	h := NewRateLimiter(client, RateLimitConfig{
		Limit: PerMinute(1, 1),
	}).Handler(okHandler())

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.3:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.3:1").Code)
}

func TestKeyByIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "1.1.1.1, 2.2.2.2")
	assert.Equal(t, "ratelimit:ip:2.2.2.2", KeyByIP(req))
	assert.Equal(t, "ratelimit:reset:2.2.2.2", KeyByScopeAndIP("reset")(req))
}

func TestLocalLimiterRefillsOverTime(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	l := newLocalLimiter(func() time.Time { return now })
	limit := PerMinute(6, 1)

	res, err := l.allow("k", limit)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Allowed)

	res, err = l.allow("k", limit)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Allowed)
	assert.Equal(t, 10*time.Second, res.RetryAfter)

	now = now.Add(10 * time.Second)
	res, err = l.allow("k", limit)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Allowed)
}

func TestLocalLimiterSweepsIdleBuckets(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	l := newLocalLimiter(func() time.Time { return now })
	limit := PerMinute(6, 1)

	_, err := l.allow("idle", limit)
	require.NoError(t, err)

	now = now.Add(time.Hour)
	_, err = l.allow("busy", limit)
	require.NoError(t, err)

	assert.NotContains(t, l.buckets, "idle")
	assert.Contains(t, l.buckets, "busy")
}

func TestKeyByScopeAndAccount(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/subscriptions", nil)
	req.RemoteAddr = "10.1.1.1:5000"
	key := KeyByScopeAndAccount("submit")

	assert.Equal(t, "ratelimit:submit:ip:10.1.1.1", key(req))

	req = req.WithContext(context.WithValue(req.Context(), UserIDKey, "acct-1"))
	assert.Equal(t, "ratelimit:submit:account:acct-1", key(req))
}

func TestBypassPathsSkipsProbes(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := NewRateLimiter(client, RateLimitConfig{
		Limit:      PerMinute(1, 1),
		BypassFunc: BypassPaths("/healthz", "/metrics"),
	}).Handler(okHandler())

	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
