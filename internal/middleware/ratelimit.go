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

	"github.com/carterperez-dev/socialai/internal/config"
	"github.com/carterperez-dev/socialai/internal/core"
)

// RateLimitConfig describes one limiter. Scope namespaces the Redis keys so
// the global and per-endpoint limiters never share a bucket.
type RateLimitConfig struct {
	Scope   string
	Limit   redis_rate.Limit
	KeyFunc func(*http.Request) string
}

// RateLimiter counts in Redis and falls back to an in-process token bucket
// per key while Redis is unreachable. Requests are never let through
// unmetered.
type RateLimiter struct {
	redis *redis_rate.Limiter
	local *localBuckets
	cfg   RateLimitConfig
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}
	if cfg.Scope == "" {
		cfg.Scope = "global"
	}

	return &RateLimiter{
		redis: redis_rate.NewLimiter(rdb),
		local: &localBuckets{entries: make(map[string]*bucket)},
		cfg:   cfg,
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rl.cfg.Scope + ":" + rl.cfg.KeyFunc(r)
		res := rl.allow(r.Context(), key)

		setRateLimitHeaders(w, res, rl.cfg.Limit)

		if res.Allowed == 0 {
			writeRateLimitExceeded(w, res)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(ctx context.Context, key string) *redis_rate.Result {
	res, err := rl.redis.Allow(ctx, key, rl.cfg.Limit)
	if err == nil {
		return res
	}

	slog.Debug("rate limiter using local buckets",
		"scope", rl.cfg.Scope,
		"error", err,
	)
	return rl.local.allow(key, rl.cfg.Limit, time.Now())
}

// KeyByIP keys on the client address. With X-Forwarded-For the last hop is
// used since it was appended by our own proxy.
func KeyByIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		return "ratelimit:ip:" + strings.TrimSpace(hops[len(hops)-1])
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return "ratelimit:ip:" + xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}
	return "ratelimit:ip:" + ip
}

// KeyByUser keys on the authenticated user and needs Authenticator upstream.
// Anonymous requests fall back to the client address.
func KeyByUser(r *http.Request) string {
	if userID := GetUserID(r.Context()); userID != "" {
		return "ratelimit:user:" + userID
	}
	return KeyByIP(r)
}

// LimitFromConfig converts a configured window into a redis_rate limit.
func LimitFromConfig(cfg config.RateLimitConfig) redis_rate.Limit {
	period := cfg.Window
	if period <= 0 {
		period = time.Minute
	}
	return redis_rate.Limit{
		Rate:   cfg.Requests,
		Burst:  cfg.Burst,
		Period: period,
	}
}

func setRateLimitHeaders(
	w http.ResponseWriter,
	res *redis_rate.Result,
	limit redis_rate.Limit,
) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(res.ResetAfter).Unix(), 10))
	h.Set("RateLimit-Policy", fmt.Sprintf("%d;w=%d", limit.Rate, int(limit.Period.Seconds())))
}

func writeRateLimitExceeded(w http.ResponseWriter, res *redis_rate.Result) {
	retryAfter := max(int(res.RetryAfter.Seconds()), 1)

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	core.JSON(w, http.StatusTooManyRequests, core.ErrorBody{
		Error: fmt.Sprintf("Rate limit exceeded. Retry after %d seconds.", retryAfter),
		Code:  "RATE_LIMITED",
	})
}

const bucketIdleTTL = 10 * time.Minute

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type localBuckets struct {
	mu        sync.Mutex
	entries   map[string]*bucket
	lastSweep time.Time
}

func (l *localBuckets) allow(key string, limit redis_rate.Limit, now time.Time) *redis_rate.Result {
	perSecond := float64(limit.Rate) / limit.Period.Seconds()
	interval := time.Duration(float64(time.Second) / perSecond)

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > bucketIdleTTL {
		for k, b := range l.entries {
			if now.Sub(b.lastSeen) > bucketIdleTTL {
				delete(l.entries, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.entries[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(perSecond), limit.Burst)}
		l.entries[key] = b
	}
	b.lastSeen = now

	res := &redis_rate.Result{
		Limit:      limit,
		RetryAfter: -1,
		ResetAfter: interval,
	}
	if b.limiter.AllowN(now, 1) {
		res.Allowed = 1
	} else {
		res.RetryAfter = interval
	}
	res.Remaining = max(int(b.limiter.TokensAt(now)), 0)

	return res
}
