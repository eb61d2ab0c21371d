// AngelaMos | 2026
// handler.go

package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

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
	r.Route("/users", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/me", h.GetMe)
		r.Put("/me", h.UpdateMe)
		r.Delete("/me", h.DeleteMe)
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/users", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/", h.ListUsers)
		r.Put("/{userID}/role", h.UpdateUserRole)
	})
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	me, err := h.service.GetMe(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeUserError(w, err)
		return
	}

	core.OK(w, me)
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	user, err := h.service.UpdateMe(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		writeUserError(w, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteMe(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		writeUserError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := ListUsersParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Search:   r.URL.Query().Get("search"),
		Role:     r.URL.Query().Get("role"),
	}
	params.Normalize()

	users, total, err := h.service.ListUsers(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(w, ToUserResponseList(users), params.Page, params.PageSize, total)
}

func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	user, err := h.service.UpdateUserRole(r.Context(), chi.URLParam(r, "userID"), req.Role)
	if err != nil {
		writeUserError(w, err)
		return
	}

	core.OK(w, ToUserResponse(user))
}

func writeUserError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrUnauthorized):
		core.Unauthorized(w, "")
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "user")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, err.Error())
	default:
		core.InternalServerError(w, err)
	}
}

func parseIntQuery(r *http.Request, key string, fallback int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return fallback
	}
	return v
}
