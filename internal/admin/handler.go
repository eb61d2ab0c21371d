// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/socialai/internal/core"
	"github.com/carterperez-dev/socialai/internal/profile"
)

type ProfileStats interface {
	Stats(ctx context.Context) (*profile.Stats, error)
}

type PostCounter interface {
	Count(ctx context.Context) (int, error)
}

type Handler struct {
	dbStats    func() sql.DBStats
	redisStats func() *redis.PoolStats
	dbPing     func(ctx context.Context) error
	redisPing  func(ctx context.Context) error
	profiles   ProfileStats
	posts      PostCounter
}

type HandlerConfig struct {
	DBStats    func() sql.DBStats
	RedisStats func() *redis.PoolStats
	DBPing     func(ctx context.Context) error
	RedisPing  func(ctx context.Context) error
	Profiles   ProfileStats
	Posts      PostCounter
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		dbStats:    cfg.DBStats,
		redisStats: cfg.RedisStats,
		dbPing:     cfg.DBPing,
		redisPing:  cfg.RedisPing,
		profiles:   cfg.Profiles,
		posts:      cfg.Posts,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/stats", h.GetSystemStats)
		r.Get("/stats/usage", h.GetUsageStats)
		r.Get("/stats/runtime", h.GetRuntimeStats)
	})
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	core.OK(w, SystemStatsResponse{
		Database: DatabaseStatus{
			Healthy: ping(ctx, h.dbPing),
			Stats:   h.getDBStats(),
		},
		Redis: RedisStatus{
			Healthy: ping(ctx, h.redisPing),
			Stats:   h.getRedisStats(),
		},
		Runtime: runtimeStats(),
		Usage:   h.usage(ctx),
	})
}

func (h *Handler) GetUsageStats(w http.ResponseWriter, r *http.Request) {
	usage := h.usage(r.Context())
	if usage == nil {
		core.JSON(w, http.StatusServiceUnavailable, core.ErrorBody{
			Error: "usage statistics unavailable",
			Code:  "STATS_UNAVAILABLE",
		})
		return
	}

	core.OK(w, usage)
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, _ *http.Request) {
	core.OK(w, runtimeStats())
}

// usage returns nil when either source fails; the error is logged.
func (h *Handler) usage(ctx context.Context) *UsageStats {
	if h.profiles == nil || h.posts == nil {
		return nil
	}

	stats, err := h.profiles.Stats(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "profile stats", "error", err)
		return nil
	}

	saved, err := h.posts.Count(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "post count", "error", err)
		return nil
	}

	return &UsageStats{
		Profiles:         stats.Profiles,
		ProProfiles:      stats.ProProfiles,
		GenerationsToday: stats.GenerationsToday,
		SavedPosts:       saved,
	}
}

func ping(ctx context.Context, fn func(context.Context) error) bool {
	if fn == nil {
		return true
	}
	return fn(ctx) == nil
}

func runtimeStats() RuntimeStats {
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
		StaleConns: stats.StaleConns,
	}
}

type SystemStatsResponse struct {
	Database DatabaseStatus `json:"database"`
	Redis    RedisStatus    `json:"redis"`
	Runtime  RuntimeStats   `json:"runtime"`
	Usage    *UsageStats    `json:"usage,omitempty"`
}

type DatabaseStatus struct {
	Healthy bool         `json:"healthy"`
	Stats   *DBPoolStats `json:"stats,omitempty"`
}

type RedisStatus struct {
	Healthy bool            `json:"healthy"`
	Stats   *RedisPoolStats `json:"stats,omitempty"`
}

type UsageStats struct {
	Profiles         int `json:"profiles"`
	ProProfiles      int `json:"pro_profiles"`
	GenerationsToday int `json:"generations_today"`
	SavedPosts       int `json:"saved_posts"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
	StaleConns uint32 `json:"stale_conns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	MemSys       uint64 `json:"mem_sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
}
