// AngelaMos | 2026
// server_test.go

package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/carterperez-dev/socialai/internal/config"
)

type notifier struct{ shutdown bool }

func (n *notifier) SetShutdown(v bool) { n.shutdown = v }

func TestRecoversFromPanics(t *testing.T) {
	srv := New(Config{ServerConfig: config.ServerConfig{Host: "127.0.0.1"}})
	srv.Router().Get("/boom", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestShutdownDrainsAndStops(t *testing.T) {
	n := &notifier{}
	srv := New(Config{
		ServerConfig:  config.ServerConfig{Host: "127.0.0.1", Port: 0},
		HealthHandler: n,
	})

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx, 10*time.Millisecond); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if !n.shutdown {
		t.Fatal("health handler was not told about shutdown")
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return")
	}
}
