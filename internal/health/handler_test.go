// AngelaMos | 2026
// handler_test.go

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func serve(h *Handler, path string) (*httptest.ResponseRecorder, ReadinessResponse) {
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body ReadinessResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestReadiness(t *testing.T) {
	down := errors.New("down")

	tests := []struct {
		name       string
		deps       []Dependency
		wantCode   int
		wantStatus string
	}{
		{
			name:       "all healthy",
			deps:       []Dependency{{Name: "database", Checker: pinger{}}, {Name: "redis", Checker: pinger{}}},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
		},
		{
			name:       "required down",
			deps:       []Dependency{{Name: "database", Checker: pinger{err: down}}, {Name: "redis", Checker: pinger{}}},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unavailable",
		},
		{
			name:       "optional down",
			deps:       []Dependency{{Name: "database", Checker: pinger{}}, {Name: "wix", Checker: pinger{err: down}, Optional: true}},
			wantCode:   http.StatusOK,
			wantStatus: "degraded",
		},
		{
			name:       "missing checker",
			deps:       []Dependency{{Name: "redis"}},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unavailable",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := serve(NewHandler(tc.deps...), "/readyz")
			if rec.Code != tc.wantCode || body.Status != tc.wantStatus {
				t.Fatalf("got %d %q, want %d %q", rec.Code, body.Status, tc.wantCode, tc.wantStatus)
			}
			if len(body.Checks) != len(tc.deps) || body.Checks[0].Name != tc.deps[0].Name {
				t.Fatalf("checks = %+v", body.Checks)
			}
		})
	}
}

func TestShutdownFailsProbes(t *testing.T) {
	h := NewHandler(Dependency{Name: "database", Checker: pinger{}})

	if rec, _ := serve(h, "/healthz"); rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}

	h.SetShutdown(true)
	for _, path := range []string{"/healthz", "/livez", "/readyz"} {
		rec, body := serve(h, path)
		if rec.Code != http.StatusServiceUnavailable || body.Status != "shutting_down" {
			t.Fatalf("%s = %d %q", path, rec.Code, body.Status)
		}
	}
}
