// AngelaMos | 2026
// tracing.go

package middleware

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/socialai/internal/core"
)

// Tracing opens a server span per request so handler spans nest under it.
func Tracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := core.StartSpan(r.Context(), r.Method+" "+r.URL.Path,
			attribute.String("http.method", r.Method),
			attribute.String("http.target", r.URL.Path),
			attribute.String("http.request_id", GetRequestID(r.Context())),
		)
		defer span.End()

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(ctx))

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		span.SetAttributes(attribute.Int("http.status_code", status))
	})
}
