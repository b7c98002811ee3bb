// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/templates/wifi-portal/internal/authz"
	"github.com/carterperez-dev/templates/wifi-portal/internal/core"
	"github.com/carterperez-dev/templates/wifi-portal/internal/middleware"
	"github.com/carterperez-dev/templates/wifi-portal/internal/subscription"
)

type SubscriptionStats interface {
	Stats(ctx context.Context, actor authz.Actor) (subscription.Stats, error)
}

// StreamCounter reports the dashboard streams currently connected.
type StreamCounter interface {
	OpenStreams() (user, admin int64)
}

type Handler struct {
	dbStats    func() sql.DBStats
	redisStats func() *redis.PoolStats
	redisPing  func(ctx context.Context) error
	dbPing     func(ctx context.Context) error
	business   SubscriptionStats
	streams    StreamCounter
}

type HandlerConfig struct {
	DBStats    func() sql.DBStats
	RedisStats func() *redis.PoolStats
	RedisPing  func(ctx context.Context) error
	DBPing     func(ctx context.Context) error
	Business   SubscriptionStats
	Streams    StreamCounter
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		dbStats:    cfg.DBStats,
		redisStats: cfg.RedisStats,
		redisPing:  cfg.RedisPing,
		dbPing:     cfg.DBPing,
		business:   cfg.Business,
		streams:    cfg.Streams,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/admin/stats", h.GetSystemStats)
		r.Get("/admin/stats/subscriptions", h.GetSubscriptionStats)
		r.Get("/admin/stats/db", h.GetDatabaseStats)
		r.Get("/admin/stats/redis", h.GetRedisStats)
		r.Get("/admin/stats/runtime", h.GetRuntimeStats)
		r.Get("/admin/stats/streams", h.GetStreamStats)
	})
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response := SystemStatsResponse{
		Database: DatabaseStatus{
			Healthy: pingOK(ctx, h.dbPing),
			Stats:   h.getDBStats(),
		},
		Redis: RedisStatus{
			Healthy: pingOK(ctx, h.redisPing),
			Stats:   h.getRedisStats(),
		},
		Runtime: readRuntimeStats(),
		Streams: h.getStreamStats(),
	}

	if h.business != nil {
		stats, err := h.business.Stats(ctx, middleware.ActorFrom(ctx))
		if err != nil {
			core.Error(w, err)
			return
		}
		response.Subscriptions = &stats
	}

	core.OK(w, response)
}

func (h *Handler) GetSubscriptionStats(w http.ResponseWriter, r *http.Request) {
	if h.business == nil {
		core.NotFound(w, "subscription stats")
		return
	}

	stats, err := h.business.Stats(r.Context(), middleware.ActorFrom(r.Context()))
	if err != nil {
		core.Error(w, err)
		return
	}

	core.OK(w, stats)
}

func (h *Handler) GetDatabaseStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, h.getDBStats())
}

func (h *Handler) GetRedisStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, h.getRedisStats())
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, readRuntimeStats())
}

func (h *Handler) GetStreamStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, h.getStreamStats())
}

func (h *Handler) getStreamStats() *StreamStats {
	if h.streams == nil {
		return nil
	}
	user, admin := h.streams.OpenStreams()
	return &StreamStats{User: user, Admin: admin}
}

func pingOK(ctx context.Context, ping func(context.Context) error) bool {
	if ping == nil {
		return true
	}
	return ping(ctx) == nil
}

func readRuntimeStats() RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
	}
}

func (h *Handler) getDBStats() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	stats := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
		MaxIdleClosed:      stats.MaxIdleClosed,
		MaxLifetimeClosed:  stats.MaxLifetimeClosed,
	}
}

func (h *Handler) getRedisStats() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	stats := h.redisStats()
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
	}
}

type SystemStatsResponse struct {
	Subscriptions *subscription.Stats `json:"subscriptions,omitempty"`
	Database      DatabaseStatus      `json:"database"`
	Redis         RedisStatus         `json:"redis"`
	Runtime       RuntimeStats        `json:"runtime"`
	Streams       *StreamStats        `json:"streams,omitempty"`
}

type StreamStats struct {
	User  int64 `json:"user"`
	Admin int64 `json:"admin"`
}

type DatabaseStatus struct {
	Healthy bool         `json:"healthy"`
	Stats   *DBPoolStats `json:"stats,omitempty"`
}

type RedisStatus struct {
	Healthy bool            `json:"healthy"`
	Stats   *RedisPoolStats `json:"stats,omitempty"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
	MaxIdleClosed      int64  `json:"max_idle_closed"`
	MaxLifetimeClosed  int64  `json:"max_lifetime_closed"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	MemSys       uint64 `json:"mem_sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
}
