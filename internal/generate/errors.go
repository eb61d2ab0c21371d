// AngelaMos | 2026
// errors.go

package generate

import (
	"fmt"
	"net/http"

	"github.com/carterperez-dev/socialai/internal/llm"
)

type Kind int

const (
	KindUnauthorized Kind = iota + 1
	KindValidation
	KindProfileUnavailable
	KindQuotaExceeded
	KindFetch
	KindInvalidPlatform
	KindUpstreamAuth
	KindUpstreamQuota
	KindUpstreamModel
	KindUpstreamUnknown
	// KindPersistenceWarning is never returned. It tags the log line for a
	// counter update that failed after the posts were generated.
	KindPersistenceWarning
	KindInternal
)

var kindNames = map[Kind]string{
	KindUnauthorized:       "unauthorized",
	KindValidation:         "validation_error",
	KindProfileUnavailable: "profile_unavailable",
	KindQuotaExceeded:      "quota_exceeded",
	KindFetch:              "fetch_error",
	KindInvalidPlatform:    "invalid_platform",
	KindUpstreamAuth:       "upstream_auth_error",
	KindUpstreamQuota:      "upstream_quota_error",
	KindUpstreamModel:      "upstream_model_error",
	KindUpstreamUnknown:    "upstream_unknown",
	KindPersistenceWarning: "persistence_warning",
	KindInternal:           "internal_error",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) StatusCode() int {
	switch k {
	case KindUnauthorized, KindUpstreamAuth:
		return http.StatusUnauthorized
	case KindValidation, KindFetch, KindInvalidPlatform, KindUpstreamModel:
		return http.StatusBadRequest
	case KindProfileUnavailable:
		return http.StatusNotFound
	case KindQuotaExceeded, KindUpstreamQuota:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Message is the text shown to the caller.
func (k Kind) Message() string {
	switch k {
	case KindUnauthorized:
		return "Unauthorized"
	case KindValidation:
		return "Content and platform are required"
	case KindProfileUnavailable:
		return "User profile not found"
	case KindQuotaExceeded:
		return "Daily generation limit reached"
	case KindFetch:
		return "Failed to fetch content from URL"
	case KindInvalidPlatform:
		return "Invalid platform. Must be one of: twitter, linkedin, instagram, facebook"
	case KindUpstreamAuth:
		return "Invalid generation API key"
	case KindUpstreamQuota:
		return "Generation API quota exceeded"
	case KindUpstreamModel:
		return "Invalid model or model access denied"
	case KindInternal:
		return "Internal server error"
	default:
		return "Failed to generate content"
	}
}

func upstreamKind(k llm.Kind) Kind {
	switch k {
	case llm.KindAuth:
		return KindUpstreamAuth
	case llm.KindQuota:
		return KindUpstreamQuota
	case llm.KindModel:
		return KindUpstreamModel
	default:
		return KindUpstreamUnknown
	}
}

// Error is the Failed(kind) outcome of a generation request. Remaining is
// only meaningful for KindQuotaExceeded and may be negative.
type Error struct {
	Kind      Kind
	Stage     Stage
	Remaining int
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generate %s at %s: %v", e.Kind, e.Stage, e.Err)
	}
	return fmt.Sprintf("generate %s at %s", e.Kind, e.Stage)
}

func (e *Error) Unwrap() error {
	return e.Err
}
