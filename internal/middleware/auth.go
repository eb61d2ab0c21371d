// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carterperez-dev/socialai/internal/core"
)

const ClaimsKey contextKey = "access_claims"

const roleAdmin = "admin"

type TokenVerifier interface {
	VerifyAccessToken(
		ctx context.Context,
		token string,
	) (*AccessTokenClaims, error)
}

// AccessTokenClaims is what a verified access token tells the handlers
// about the caller. TokenID and ExpiresAt let logout deny the token until
// it would have expired anyway.
type AccessTokenClaims struct {
	UserID       string
	Role         string
	TokenVersion int
	TokenID      string
	ExpiresAt    time.Time
}

// Authenticator rejects requests without a valid bearer token before any
// handler runs. The body for a missing token is {"error":"Unauthorized"}.
func Authenticator(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				core.JSONError(w, core.UnauthorizedError(""))
				return
			}

			claims, err := verifier.VerifyAccessToken(r.Context(), token)
			if err != nil {
				writeAuthError(w, err)
				return
			}

			trace.SpanFromContext(r.Context()).SetAttributes(
				attribute.String("user.id", claims.UserID),
				attribute.String("user.role", claims.Role),
			)

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireAdmin must run after Authenticator.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaims(r.Context())
		switch {
		case claims == nil:
			core.JSONError(w, core.UnauthorizedError("authentication required"))
		case claims.Role != roleAdmin:
			core.JSONError(w, core.ForbiddenError("insufficient permissions"))
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func writeAuthError(w http.ResponseWriter, err error) {
	if core.IsAppError(err) {
		core.JSONError(w, err)
		return
	}

	switch {
	case errors.Is(err, core.ErrTokenExpired):
		core.JSONError(w, core.TokenExpiredError())
	case errors.Is(err, core.ErrTokenRevoked):
		core.JSONError(w, core.TokenRevokedError())
	default:
		core.JSONError(w, core.TokenInvalidError())
	}
}

func WithClaims(ctx context.Context, claims *AccessTokenClaims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

func GetClaims(ctx context.Context) *AccessTokenClaims {
	if claims, ok := ctx.Value(ClaimsKey).(*AccessTokenClaims); ok {
		return claims
	}
	return nil
}

// GetUserID returns "" for anonymous requests.
func GetUserID(ctx context.Context) string {
	if claims := GetClaims(ctx); claims != nil {
		return claims.UserID
	}
	return ""
}
