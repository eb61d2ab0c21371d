// AngelaMos | 2026
// handler_test.go

package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/socialai/internal/profile"
)

type stubProfiles struct {
	stats *profile.Stats
	err   error
}

func (s stubProfiles) Stats(context.Context) (*profile.Stats, error) { return s.stats, s.err }

type stubPosts int

func (s stubPosts) Count(context.Context) (int, error) { return int(s), nil }

func passthrough(next http.Handler) http.Handler { return next }

func get(h *Handler, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.RegisterRoutes(r, passthrough, passthrough)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestSystemStatsIncludesUsage(t *testing.T) {
	h := NewHandler(HandlerConfig{
		DBStats:   func() sql.DBStats { return sql.DBStats{MaxOpenConnections: 25, InUse: 2} },
		DBPing:    func(context.Context) error { return nil },
		RedisPing: func(context.Context) error { return errors.New("down") },
		Profiles:  stubProfiles{stats: &profile.Stats{Profiles: 10, ProProfiles: 3, GenerationsToday: 42}},
		Posts:     stubPosts(7),
	})

	rec := get(h, "/admin/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body SystemStatsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Database.Healthy || body.Redis.Healthy || body.Database.Stats.MaxOpenConnections != 25 {
		t.Fatalf("health = %+v / %+v", body.Database, body.Redis)
	}
	want := UsageStats{Profiles: 10, ProProfiles: 3, GenerationsToday: 42, SavedPosts: 7}
	if body.Usage == nil || *body.Usage != want {
		t.Fatalf("usage = %+v, want %+v", body.Usage, want)
	}
}

func TestUsageStatsUnavailable(t *testing.T) {
	h := NewHandler(HandlerConfig{
		Profiles: stubProfiles{err: errors.New("db down")},
		Posts:    stubPosts(0),
	})

	if rec := get(h, "/admin/stats/usage"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if rec := get(h, "/admin/stats/runtime"); rec.Code != http.StatusOK {
		t.Fatalf("runtime status = %d", rec.Code)
	}
}
