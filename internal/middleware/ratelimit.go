// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/templates/wifi-portal/internal/core"
)

type RateLimitConfig struct {
	Limit   redis_rate.Limit
	KeyFunc func(*http.Request) string
	// FailOpen lets requests through when neither Redis nor the local
	// fallback can answer.
	FailOpen   bool
	BypassFunc func(*http.Request) bool
	Logger     *slog.Logger
}

// RateLimiter enforces a GCRA limit in Redis so every replica shares one
// budget per key. While Redis is unreachable each replica falls back to
// its own token buckets.
type RateLimiter struct {
	limiter  *redis_rate.Limiter
	fallback *localLimiter
	config   RateLimitConfig
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &RateLimiter{
		limiter:  redis_rate.NewLimiter(rdb),
		fallback: newLocalLimiter(time.Now),
		config:   cfg,
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.config.BypassFunc != nil && rl.config.BypassFunc(r) {
			next.ServeHTTP(w, r)
			return
		}

		key := rl.config.KeyFunc(r)
		res, err := rl.allow(r.Context(), key)
		if err != nil {
			if rl.config.FailOpen {
				rl.config.Logger.Warn("rate limiter unavailable, failing open",
					"error", err,
					"key", key,
				)
				next.ServeHTTP(w, r)
				return
			}
			core.JSONError(w, core.ServiceUnavailableError())
			return
		}

		setRateLimitHeaders(w, res, rl.config.Limit)

		if res.Allowed == 0 {
			retryAfter := retryAfterSeconds(res.RetryAfter)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			core.JSONError(w, core.RateLimitedError(retryAfter))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(
	ctx context.Context,
	key string,
) (*redis_rate.Result, error) {
	res, err := rl.limiter.Allow(ctx, key, rl.config.Limit)
	if err == nil {
		return res, nil
	}

	rl.config.Logger.Debug("redis rate limit failed, using local buckets",
		"error", err,
	)
	return rl.fallback.allow(key, rl.config.Limit)
}

func KeyByIP(r *http.Request) string {
	return "ratelimit:ip:" + clientIP(r)
}

// KeyByScopeAndIP keys a limiter to one group of endpoints per client
// address, so a tight limit on one group does not drain the global budget.
func KeyByScopeAndIP(scope string) func(*http.Request) string {
	return func(r *http.Request) string {
		return "ratelimit:" + scope + ":" + clientIP(r)
	}
}

// KeyByScopeAndAccount keys authenticated endpoints by account so users
// behind one hotspot NAT do not share a budget. It must run after the
// authenticator; anonymous requests fall back to the client address.
func KeyByScopeAndAccount(scope string) func(*http.Request) string {
	return func(r *http.Request) string {
		if id, ok := r.Context().Value(UserIDKey).(string); ok && id != "" {
			return "ratelimit:" + scope + ":account:" + id
		}
		return "ratelimit:" + scope + ":ip:" + clientIP(r)
	}
}

// BypassPaths skips limiting for exact paths such as probes and metrics.
func BypassPaths(paths ...string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}

	return func(r *http.Request) bool {
		_, ok := set[r.URL.Path]
		return ok
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[len(ips)-1])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}

func setRateLimitHeaders(
	w http.ResponseWriter,
	res *redis_rate.Result,
	limit redis_rate.Limit,
) {
	h := w.Header()

	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(
		time.Now().Add(res.ResetAfter).Unix(), 10))
	h.Set("RateLimit-Policy", fmt.Sprintf(`%d;w=%d`, limit.Rate, int(limit.Period.Seconds())))
}

func retryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

const sweepInterval = 5 * time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// localLimiter holds per-key token buckets. Idle buckets are swept on the
// next call after sweepInterval instead of from a background goroutine.
type localLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	now       func() time.Time
	lastSweep time.Time
}

func newLocalLimiter(now func() time.Time) *localLimiter {
	return &localLimiter{
		buckets:   make(map[string]*bucket),
		now:       now,
		lastSweep: now(),
	}
}

func (l *localLimiter) allow(
	key string,
	limit redis_rate.Limit,
) (*redis_rate.Result, error) {
	if limit.Period <= 0 || limit.Rate <= 0 {
		return nil, fmt.Errorf("invalid limit %v", limit)
	}

	now := l.now()
	every := limit.Period / time.Duration(limit.Rate)

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) >= sweepInterval {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) >= limit.Period+sweepInterval {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Every(every), limit.Burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	res := &redis_rate.Result{Limit: limit, RetryAfter: -1}

	reservation := b.limiter.ReserveN(now, 1)
	if delay := reservation.DelayFrom(now); !reservation.OK() || delay > 0 {
		reservation.CancelAt(now)
		res.RetryAfter = delay
		if !reservation.OK() {
			res.RetryAfter = limit.Period
		}
	} else {
		res.Allowed = 1
	}

	res.Remaining = max(int(b.limiter.TokensAt(now)), 0)
	res.ResetAfter = time.Duration(float64(limit.Burst-res.Remaining) * float64(every))

	return res, nil
}

func PerMinute(rate, burst int) redis_rate.Limit {
	return redis_rate.Limit{
		Rate:   rate,
		Burst:  burst,
		Period: time.Minute,
	}
}
