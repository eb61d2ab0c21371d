// AngelaMos | 2026
// handler.go

package profile

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/socialai/internal/core"
	"github.com/carterperez-dev/socialai/internal/middleware"
)

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

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.With(authenticator).Get("/profile", h.GetProfile)
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/profiles", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Put("/{userID}/tier", h.UpdateTier)
	})
}

// GetProfile is the dashboard entry point and creates the profile on first
// visit.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	p, err := h.service.Ensure(r.Context(), userID)
	if err != nil {
		if errors.Is(err, core.ErrUnauthorized) {
			core.Unauthorized(w, "")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToProfileResponse(p, h.service.Today()))
}

func (h *Handler) UpdateTier(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req UpdateTierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	p, err := h.service.SetTier(r.Context(), userID, req.Tier)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "profile")
		case errors.Is(err, core.ErrInvalidInput):
			core.BadRequest(w, "invalid tier")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.OK(w, ToProfileResponse(p, h.service.Today()))
}
