// AngelaMos | 2026
// handler.go

package generate

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/socialai/internal/core"
	"github.com/carterperez-dev/socialai/internal/middleware"
)

const maxRequestBytes = 1 << 20

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts POST /generate. limiter runs after authentication
// so it can key on the user id; nil skips it.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	limiter func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		if limiter != nil {
			r.Use(limiter)
		}
		r.Post("/generate", h.Generate)
	})
}

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeError(w, &Error{Kind: KindUnauthorized, Stage: StageAuthorizing})
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	req.Platform = strings.TrimSpace(req.Platform)

	if err := h.validator.Struct(req); err != nil {
		writeError(w, &Error{Kind: KindValidation, Stage: StageAuthorizing, Err: err})
		return
	}

	result, err := h.service.Generate(r.Context(), userID, Request{
		Content:  req.Content,
		Platform: req.Platform,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, GenerateResponse{
		Posts:                result.Posts,
		RemainingGenerations: result.RemainingGenerations,
	})
}

func writeError(w http.ResponseWriter, err error) {
	var genErr *Error
	if !errors.As(err, &genErr) {
		core.InternalServerError(w, err)
		return
	}

	body := ErrorResponse{Error: genErr.Kind.Message()}
	if genErr.Kind == KindQuotaExceeded {
		remaining := max(genErr.Remaining, 0)
		body.RemainingGenerations = &remaining
	}

	status := genErr.Kind.StatusCode()
	if status >= http.StatusInternalServerError {
		slog.Error("generation failed",
			"kind", genErr.Kind.String(),
			"stage", genErr.Stage.String(),
			"error", genErr.Err,
		)
	}

	core.JSON(w, status, body)
}
