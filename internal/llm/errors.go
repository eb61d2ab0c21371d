// AngelaMos | 2026
// errors.go

package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/openai/openai-go"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindAuth
	KindQuota
	KindModel
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindQuota:
		return "quota"
	case KindModel:
		return "model"
	default:
		return "unknown"
	}
}

// UpstreamError is every failure of the generation backend, classified so
// callers can pick a status code without looking at the cause.
type UpstreamError struct {
	Kind       Kind
	StatusCode int
	Cause      error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("generation backend (%s, status %d): %s",
			e.Kind, e.StatusCode, describe(e.Cause))
	}
	return fmt.Sprintf("generation backend (%s): %s", e.Kind, describe(e.Cause))
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// describe avoids openai.Error.Error, which dereferences the originating
// request and panics on hand-built errors.
func describe(err error) string {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return http.StatusText(apiErr.StatusCode)
	}
	if err == nil {
		return "no cause"
	}
	return err.Error()
}

// Classify maps a client error to an UpstreamError. HTTP status and the
// structured code come first. Some OpenAI-compatible backends (Gemini among
// them) answer a bad key with a plain 400, so the message text is checked
// last for "api key", "quota" and "model", in that order.
func Classify(err error) *UpstreamError {
	if err == nil {
		return nil
	}

	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream
	}

	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return &UpstreamError{Kind: KindUnknown, Cause: err}
	}

	kind := classifyStatus(apiErr.StatusCode, apiErr.Code)
	if kind == KindUnknown {
		kind = classifyText(strings.Join([]string{
			apiErr.Code,
			apiErr.Type,
			apiErr.Message,
			apiErr.RawJSON(),
		}, " "))
	}

	return &UpstreamError{
		Kind:       kind,
		StatusCode: apiErr.StatusCode,
		Cause:      err,
	}
}

func classifyStatus(status int, code string) Kind {
	switch code {
	case "invalid_api_key":
		return KindAuth
	case "insufficient_quota", "rate_limit_exceeded":
		return KindQuota
	case "model_not_found":
		return KindModel
	}

	switch status {
	case http.StatusUnauthorized:
		return KindAuth
	case http.StatusTooManyRequests:
		return KindQuota
	case http.StatusNotFound:
		return KindModel
	default:
		return KindUnknown
	}
}

func classifyText(text string) Kind {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "api key"), strings.Contains(lower, "api_key"):
		return KindAuth
	case strings.Contains(lower, "quota"), strings.Contains(lower, "resource_exhausted"):
		return KindQuota
	case strings.Contains(lower, "model"):
		return KindModel
	default:
		return KindUnknown
	}
}
