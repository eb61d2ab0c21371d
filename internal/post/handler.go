// AngelaMos | 2026
// handler.go

package post

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
	r.Route("/posts", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Delete("/{postID}", h.Delete)
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req CreatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	p, err := h.service.Save(r.Context(), SaveInput{
		UserID:          userID,
		OriginalContent: req.OriginalContent,
		Platform:        req.Platform,
		GeneratedText:   req.GeneratedText,
	})
	if err != nil {
		if errors.Is(err, core.ErrUnauthorized) {
			core.Unauthorized(w, "")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.Created(w, ToPostResponse(p))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params := ListPostsParams{
		UserID:   middleware.GetUserID(r.Context()),
		Platform: r.URL.Query().Get("platform"),
	}

	if page := r.URL.Query().Get("page"); page != "" {
		if p, err := strconv.Atoi(page); err == nil {
			params.Page = p
		}
	}

	if pageSize := r.URL.Query().Get("page_size"); pageSize != "" {
		if ps, err := strconv.Atoi(pageSize); err == nil {
			params.PageSize = ps
		}
	}

	params.Normalize()

	posts, total, err := h.service.List(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(
		w,
		ToPostResponseList(posts),
		params.Page,
		params.PageSize,
		total,
	)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	postID := chi.URLParam(r, "postID")

	if err := h.service.Delete(r.Context(), postID, userID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "post")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}
